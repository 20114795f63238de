// cmd/admin-console/commands.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"casting-admin/internal/common/errors"
	"casting-admin/internal/console"
	"casting-admin/internal/controllers/form"
	"casting-admin/internal/controllers/list"
	"casting-admin/internal/controllers/moderation"
	"casting-admin/internal/models"
	"casting-admin/internal/resources"
)

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"login":           {"login -email <email> [-password <password>]", cmdLogin},
		"logout":          {"logout", cmdLogout},
		"whoami":          {"whoami", cmdWhoami},
		"resources":       {"resources", cmdResources},
		"list":            {"list [-json] <resource>", cmdList},
		"view":            {"view <resource> <id>", cmdView},
		"delete":          {"delete <resource> <id>", cmdDelete},
		"status":          {"status <resource> <id> <active|deactivate>", cmdStatus},
		"create":          {"create <form> [-set field=value]... [-file field=path]...", cmdCreate},
		"edit":            {"edit <form> [id] [-set field=value]... [-file field=path]...", cmdEdit},
		"pending":         {"pending [id]", cmdPending},
		"approve":         {"approve <id>", cmdApprove},
		"reject":          {"reject <id>", cmdReject},
		"change-password": {"change-password -old <password> -new <password> -confirm <password>", cmdChangePassword},
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: admin-console [-config path] [-yes] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

// ==========================
// Session
// ==========================

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	email := fs.String("email", os.Getenv("ADMIN_EMAIL"), "Admin email")
	password := fs.String("password", os.Getenv("ADMIN_PASSWORD"), "Admin password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := a.session.Login(ctx, models.Credentials{Email: *email, Password: *password})
	if err != nil {
		fmt.Fprintf(a.errOut, "✖ %s\n", errors.UserMessage(err))
		return err
	}
	fmt.Fprintf(a.out, "✔ Signed in as admin %s\n", sess.AdminID)
	return nil
}

func cmdLogout(ctx context.Context, a *app, args []string) error {
	if err := a.session.Logout(ctx); err != nil {
		fmt.Fprintf(a.errOut, "✖ %s\n", errors.UserMessage(err))
		return err
	}
	fmt.Fprintln(a.out, "✔ Signed out")
	return nil
}

func cmdWhoami(ctx context.Context, a *app, args []string) error {
	sess, ok := a.session.Current(ctx)
	if !ok {
		fmt.Fprintln(a.out, "Not signed in")
		return nil
	}
	fmt.Fprintf(a.out, "Admin %s, signed in %s\n", sess.AdminID, sess.CreatedAt.Local().Format("Jan 2, 2006 15:04"))
	if !sess.ExpiresAt.IsZero() {
		fmt.Fprintf(a.out, "Session expires %s\n", sess.ExpiresAt.Local().Format("Jan 2, 2006 15:04"))
	}
	return nil
}

// requireSession signs in from ADMIN_EMAIL/ADMIN_PASSWORD when no session is
// stored, so the memory backend works for one-shot commands.
func requireSession(ctx context.Context, a *app) error {
	if a.session.IsAuthenticated(ctx) {
		return nil
	}
	email, password := os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		err := errors.NewAuthError("Not signed in. Run login or set ADMIN_EMAIL and ADMIN_PASSWORD")
		fmt.Fprintf(a.errOut, "✖ %s\n", errors.UserMessage(err))
		return err
	}
	if _, err := a.session.Login(ctx, models.Credentials{Email: email, Password: password}); err != nil {
		fmt.Fprintf(a.errOut, "✖ %s\n", errors.UserMessage(err))
		return err
	}
	return nil
}

// ==========================
// Catalog
// ==========================

func cmdResources(ctx context.Context, a *app, args []string) error {
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RESOURCE\tHOST\tOPERATIONS")
	for _, res := range a.catalog.Resources() {
		var ops []string
		for _, op := range []string{"list", "get", "create", "update", "delete", "status"} {
			if res.Supports(op) {
				ops = append(ops, op)
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", res.Name, res.Host, strings.Join(ops, ","))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\nForms: %s\n", strings.Join(a.catalog.FormNames(), ", "))
	return nil
}

// ==========================
// Lists
// ==========================

func listController(ctx context.Context, a *app, name string) (*list.Controller, *console.Screen, func(), error) {
	spec, err := a.catalog.List(name)
	if err != nil {
		fmt.Fprintf(a.errOut, "✖ %s\n", errors.UserMessage(err))
		return nil, nil, nil, err
	}
	screen, deps, done := a.screen(ctx)
	return list.NewController(spec, a.client, deps), screen, done, nil
}

func cmdList(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	asJSON := fs.Bool("json", false, "Print rows as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError(a, "list")
	}
	return showList(ctx, a, fs.Arg(0), *asJSON)
}

func showList(ctx context.Context, a *app, name string, asJSON bool) error {
	if err := requireSession(ctx, a); err != nil {
		return err
	}
	ctrl, screen, done, err := listController(ctx, a, name)
	if err != nil {
		return err
	}
	defer done()

	rows, err := ctrl.Load(screen.Context())
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	if len(rows) == 0 {
		fmt.Fprintf(a.out, "No %s records.\n", ctrl.Spec().Noun)
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	columns := ctrl.Spec().Columns
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = strings.ToUpper(c.Header)
	}
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = row.Cells[c.Key]
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	return w.Flush()
}

func cmdView(ctx context.Context, a *app, args []string) error {
	if len(args) != 2 {
		return usageError(a, "view")
	}
	id, err := parseID(a, args[1])
	if err != nil {
		return err
	}
	if err := requireSession(ctx, a); err != nil {
		return err
	}

	rec, err := a.client.GetByID(ctx, args[0], id)
	if err != nil {
		fmt.Fprintf(a.errOut, "✖ %s\n", errors.UserMessage(err))
		return err
	}
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(rec.Fields)
}

func cmdDelete(ctx context.Context, a *app, args []string) error {
	if len(args) != 2 {
		return usageError(a, "delete")
	}
	id, err := parseID(a, args[1])
	if err != nil {
		return err
	}
	if err := requireSession(ctx, a); err != nil {
		return err
	}
	ctrl, screen, done, err := listController(ctx, a, args[0])
	if err != nil {
		return err
	}
	defer done()

	_, err = ctrl.RequestDelete(screen.Context(), id)
	return err
}

func cmdStatus(ctx context.Context, a *app, args []string) error {
	if len(args) != 3 {
		return usageError(a, "status")
	}
	id, err := parseID(a, args[1])
	if err != nil {
		return err
	}
	active, ok := resources.ParseActive(args[2])
	if !ok {
		fmt.Fprintf(a.errOut, "✖ Unknown status %q\n", args[2])
		return usageError(a, "status")
	}
	if err := requireSession(ctx, a); err != nil {
		return err
	}
	ctrl, screen, done, err := listController(ctx, a, args[0])
	if err != nil {
		return err
	}
	defer done()

	_, err = ctrl.SetStatus(screen.Context(), id, active)
	return err
}

// ==========================
// Forms
// ==========================

// fieldValues collects repeated -set field=value flags.
type fieldValues map[string]string

func (f fieldValues) String() string {
	parts := make([]string, 0, len(f))
	for k, v := range f {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func (f fieldValues) Set(s string) error {
	key, value, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected field=value, got %q", s)
	}
	f[key] = value
	return nil
}

func cmdCreate(ctx context.Context, a *app, args []string) error {
	return submitForm(ctx, a, "create", models.FormCreate, args)
}

func cmdEdit(ctx context.Context, a *app, args []string) error {
	return submitForm(ctx, a, "edit", models.FormEdit, args)
}

func submitForm(ctx context.Context, a *app, name string, mode models.FormMode, args []string) error {
	if len(args) == 0 {
		return usageError(a, name)
	}
	formName := args[0]

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	values, files := fieldValues{}, fieldValues{}
	fs.Var(values, "set", "Field value as field=value (repeatable)")
	fs.Var(files, "file", "File field as field=path (repeatable)")
	positional, err := parseInterspersed(fs, args[1:])
	if err != nil {
		return err
	}

	id := 0
	switch {
	case len(positional) > 1, len(positional) == 1 && mode != models.FormEdit:
		return usageError(a, name)
	case len(positional) == 1:
		if id, err = parseID(a, positional[0]); err != nil {
			return err
		}
	}

	spec, err := a.catalog.Form(formName)
	if err != nil {
		fmt.Fprintf(a.errOut, "✖ %s\n", errors.UserMessage(err))
		return err
	}
	if err := requireSession(ctx, a); err != nil {
		return err
	}

	screen, deps, done := a.screen(ctx)
	defer done()
	ctrl := form.NewController(spec, a.client, a.session, deps)

	if _, err := ctrl.Initialize(screen.Context(), mode, id); err != nil {
		// fetch failures are already reported by the controller
		if errors.Is(err, errors.ErrCodeConfig) || (spec.UsesAdminID && errors.Is(err, errors.ErrCodeAuth)) {
			fmt.Fprintf(a.errOut, "✖ %s\n", errors.UserMessage(err))
		}
		return err
	}
	for field, value := range values {
		if err := ctrl.SetValue(field, value); err != nil {
			fmt.Fprintf(a.errOut, "✖ %s\n", errors.UserMessage(err))
			return err
		}
	}
	for field, path := range files {
		upload, err := console.ReadUpload(path)
		if err != nil {
			fmt.Fprintf(a.errOut, "✖ %v\n", err)
			return err
		}
		if err := ctrl.SetFile(field, upload); err != nil {
			fmt.Fprintf(a.errOut, "✖ %s\n", errors.UserMessage(err))
			return err
		}
	}

	_, err = ctrl.Submit(screen.Context())
	if errors.Is(err, errors.ErrCodeValidation) {
		printFieldErrors(a.errOut, ctrl.Draft().Errors)
	}
	return err
}

// parseInterspersed parses flags that may appear before or after positional
// arguments and returns the positionals in order.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return positional, nil
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

func cmdChangePassword(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("change-password", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	oldPassword := fs.String("old", "", "Current password")
	newPassword := fs.String("new", "", "New password")
	confirm := fs.String("confirm", "", "New password again")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return submitForm(ctx, a, "change-password", models.FormEdit, []string{
		resources.ChangePassword,
		"-set", "oldPassword=" + *oldPassword,
		"-set", "newPassword=" + *newPassword,
		"-set", "confirmPassword=" + *confirm,
	})
}

func printFieldErrors(w io.Writer, fieldErrors map[string]string) {
	fields := make([]string, 0, len(fieldErrors))
	for f := range fieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(w, "✖ %s: %s\n", f, fieldErrors[f])
	}
}

// ==========================
// Moderation
// ==========================

func cmdPending(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return showList(ctx, a, resources.PendingCastings, false)
	}
	id, err := parseID(a, args[0])
	if err != nil {
		return err
	}
	if err := requireSession(ctx, a); err != nil {
		return err
	}

	screen, deps, done := a.screen(ctx)
	defer done()
	ctrl := moderation.NewController(a.client, a.session, a.delays.Default, deps)

	casting, err := ctrl.LoadApplication(screen.Context(), id)
	if err != nil {
		return err
	}
	printApplication(a.out, casting)
	return nil
}

func cmdApprove(ctx context.Context, a *app, args []string) error {
	return moderate(ctx, a, "approve", args, (*moderation.Controller).Approve)
}

func cmdReject(ctx context.Context, a *app, args []string) error {
	return moderate(ctx, a, "reject", args, (*moderation.Controller).Reject)
}

func moderate(ctx context.Context, a *app, name string, args []string, transition func(*moderation.Controller, context.Context, int) error) error {
	if len(args) != 1 {
		return usageError(a, name)
	}
	id, err := parseID(a, args[0])
	if err != nil {
		return err
	}
	if err := requireSession(ctx, a); err != nil {
		return err
	}

	screen, deps, done := a.screen(ctx)
	defer done()
	ctrl := moderation.NewController(a.client, a.session, a.delays.Default, deps)

	casting, err := ctrl.LoadApplication(screen.Context(), id)
	if err != nil {
		return err
	}
	printApplication(a.out, casting)
	return transition(ctrl, screen.Context(), id)
}

func printApplication(w io.Writer, c *models.CastingApplication) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"ID", strconv.Itoa(c.ID)},
		{"Title", c.Title},
		{"Company", c.CompanyName},
		{"Category", c.Category},
		{"Job title", c.CallerJobTitle},
		{"Audition type", c.AuditionType},
		{"Area", c.Area},
		{"Zip code", c.ZipCode},
		{"Contact", c.ContactNo},
		{"Amount", c.Amount},
		{"Period", c.Period},
		{"Expires", c.ExpirationDate},
		{"Status", c.ModerationState().Label()},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t: %s\n", r[0], r[1])
	}
	tw.Flush()

	if len(c.Roles) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROLE\tTYPE\tGENDER\tAGE\tETHNICITY")
	for _, role := range c.Roles {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s-%s\t%s\n",
			role.CastingRole, role.CastingType, role.Gender, role.AgeMin, role.AgeMax, role.EthnicityDisplay())
	}
	tw.Flush()
}

// ==========================
// Helpers
// ==========================

func parseID(a *app, s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		fmt.Fprintf(a.errOut, "✖ Invalid id %q\n", s)
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func usageError(a *app, name string) error {
	fmt.Fprintf(a.errOut, "Usage: admin-console %s\n", commands[name].usage)
	return fmt.Errorf("invalid arguments for %s", name)
}
