// cmd/tools/registry-updater/main.go
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"casting-admin/internal/common/config"
	"casting-admin/internal/resources"
	"casting-admin/pkg/registry"
)

const defaultRegistryPath = "configs/resource-registry.json"

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	setPathCmd := flag.NewFlagSet("set-path", flag.ExitOnError)
	setHostCmd := flag.NewFlagSet("set-host", flag.ExitOnError)

	exportPath := exportCmd.String("path", defaultRegistryPath, "Path to write the registry file")
	validatePath := validateCmd.String("path", defaultRegistryPath, "Path to registry file")

	setPathFile := setPathCmd.String("path", defaultRegistryPath, "Path to registry file")
	resourceName := setPathCmd.String("resource", "", "Resource name (e.g., coupons)")
	op := setPathCmd.String("op", "", "Operation (list, get, create, update, delete, status)")
	method := setPathCmd.String("method", "GET", "HTTP method")
	endpoint := setPathCmd.String("endpoint", "", "Endpoint path relative to the host; {id} is the record id")

	setHostFile := setHostCmd.String("path", defaultRegistryPath, "Path to registry file")
	hostResource := setHostCmd.String("resource", "", "Resource name")
	host := setHostCmd.String("host", "", "Host key (billing, casting, projects)")

	if len(os.Args) < 2 {
		help(os.Stdout)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		catalog := resources.New(resources.Delays{})
		if err := registry.Save(catalog.ExportRegistry(), *exportPath); err != nil {
			fmt.Printf("Error exporting registry: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Exported %d resources to %s\n", len(catalog.Resources()), *exportPath)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validate(*validatePath); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Registry validation passed.")

	case "set-path":
		setPathCmd.Parse(os.Args[2:])
		if *resourceName == "" || *op == "" || *endpoint == "" {
			fmt.Println("Error: resource, op, and endpoint are required for set-path.")
			setPathCmd.Usage()
			os.Exit(1)
		}
		err := update(*setPathFile, func(reg *registry.ResourceRegistry) error {
			return reg.SetEndpoint(*resourceName, *op, *method, *endpoint)
		})
		if err != nil {
			fmt.Printf("Error updating registry: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Set %s %s to %s %s\n", *resourceName, *op, *method, *endpoint)

	case "set-host":
		setHostCmd.Parse(os.Args[2:])
		if *hostResource == "" || *host == "" {
			fmt.Println("Error: resource and host are required for set-host.")
			setHostCmd.Usage()
			os.Exit(1)
		}
		err := update(*setHostFile, func(reg *registry.ResourceRegistry) error {
			reg.SetHost(*hostResource, *host)
			return nil
		})
		if err != nil {
			fmt.Printf("Error updating registry: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Set %s host to %s\n", *hostResource, *host)

	case "help":
		fallthrough
	default:
		help(os.Stdout)
	}
}

// validate checks the file and that it applies cleanly to the built-in catalog.
func validate(path string) error {
	reg, err := registry.Load(path)
	if err != nil {
		return err
	}
	catalog := resources.New(resources.Delays{})
	if err := catalog.ApplyRegistry(reg); err != nil {
		return err
	}
	for _, entry := range reg.Resources {
		if entry.Host == "" {
			continue
		}
		if entry.Host != config.HostBilling && entry.Host != config.HostCasting && entry.Host != config.HostProjects {
			return fmt.Errorf("resource %s uses unknown host %s", entry.Name, entry.Host)
		}
	}
	fmt.Printf("Found %d resource overrides.\n", len(reg.Resources))
	return nil
}

func update(path string, change func(reg *registry.ResourceRegistry) error) error {
	reg, err := registry.Load(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		reg = registry.New()
	}
	if err := change(reg); err != nil {
		return err
	}
	if err := resources.New(resources.Delays{}).ApplyRegistry(reg); err != nil {
		return err
	}
	return registry.Save(reg, path)
}

func help(w io.Writer) {
	fmt.Fprint(w, `
Usage: registry-updater <command> [flags]

Commands:
  export    Write the built-in resource endpoints to a registry file
  validate  Validate the registry file against the built-in resources
  set-path  Override one endpoint of a resource
  set-host  Point a resource at another host
  help      Show this help message

Examples:
  registry-updater export -path configs/resource-registry.json
  registry-updater set-path -resource coupons -op list -method GET -endpoint payapi/getAllCoupon
  registry-updater set-host -resource blogs -host casting
  registry-updater validate -path configs/resource-registry.json

Use 'registry-updater <command> -h' for more information about a command.
`)
}
