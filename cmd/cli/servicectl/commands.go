package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/core-tools/hsu-service-go/pkg/errors"
	"github.com/core-tools/hsu-service-go/pkg/serviceunit"
	"github.com/core-tools/hsu-service-go/pkg/stack"

	flags "github.com/jessevdk/go-flags"
)

type serviceArg struct {
	Service string `positional-arg-name:"SERVICE" required:"yes"`
}

func registerCommands(parser *flags.Parser) {
	add := func(name, short, long string, data interface{}) {
		if _, err := parser.AddCommand(name, short, long, data); err != nil {
			panic(err)
		}
	}

	add("avail", "Show available services",
		"Display the available services and whether they are enabled for batch launching.", &availCommand{})
	add("list", "List running services", "List running services.", &listCommand{})
	add("enable", "Enable a service", "Add SERVICE to the batch launching list used by 'launch' and 'stack'.", &enableCommand{})
	add("disable", "Disable a service", "Remove SERVICE from the batch launching list.", &disableCommand{})
	add("start", "Start a service", "Start a service.", &startCommand{})
	add("stop", "Stop a service", "Stop a service, escalating to signals with --force.", &stopCommand{})
	add("restart", "Restart a service", "Restart a service.", &restartCommand{})
	add("reload", "Reload a service", "Reload a running service.", &reloadCommand{})
	add("status", "Show status of a service", "Show whether a service is static, active or stopped.", &statusCommand{})
	add("configure", "Configure a service", "Apply configuration values to a service and run its configure hook.", &configureCommand{})
	add("info", "Show service details", "Show the definition and configuration of a service.", &infoCommand{})
	add("launch", "Start all enabled services", "Start all services enabled with the 'enable' command.", &launchCommand{})
	actions := make([]string, 0, len(stack.Actions()))
	for _, action := range stack.Actions() {
		actions = append(actions, string(action))
	}
	add("stack", "Control all enabled services",
		fmt.Sprintf("Run ACTION (%s) over every enabled service.", strings.Join(actions, ", ")), &stackCommand{})
}

func failed(operation string, u *serviceunit.Unit) error {
	return errors.NewOperationError(fmt.Sprintf("failed to %s service", operation), nil).WithContext("service", u.Name())
}

type availCommand struct{}

func (c *availCommand) Execute(args []string) error {
	return withApp(func(a *app) error {
		enabled, err := a.manager.Enabled()
		if err != nil {
			return err
		}
		for _, def := range a.manager.Registry().All() {
			state := "-"
			if enabled.Contains(def.Name()) {
				state = "enabled"
			}
			a.console.printf("%s\t%s\t%s\n", def.Name(), state, def.Summary())
		}
		return nil
	})
}

type listCommand struct{}

func (c *listCommand) Execute(args []string) error {
	return withApp(func(a *app) error {
		units, err := a.manager.Units()
		if err != nil {
			return err
		}
		for _, u := range units {
			if u.Running() {
				a.console.printf("%s\t%s\n", u.Name(), u.PID())
			}
		}
		return nil
	})
}

type enableCommand struct {
	Args serviceArg `positional-args:"yes" required:"yes"`
}

func (c *enableCommand) Execute(args []string) error {
	return withUnit(c.Args.Service, func(a *app, u *serviceunit.Unit) error {
		added, err := u.Enable()
		if err != nil {
			return err
		}
		if added {
			a.console.printf("Service '%s' enabled.\n", u.Name())
		} else {
			a.console.printf("Service '%s' is already enabled.\n", u.Name())
		}
		return nil
	})
}

type disableCommand struct {
	Args serviceArg `positional-args:"yes" required:"yes"`
}

func (c *disableCommand) Execute(args []string) error {
	return withUnit(c.Args.Service, func(a *app, u *serviceunit.Unit) error {
		removed, err := u.Disable()
		if err != nil {
			return err
		}
		if removed {
			a.console.printf("Service '%s' disabled.\n", u.Name())
		} else {
			a.console.printf("Service '%s' is not enabled.\n", u.Name())
		}
		return nil
	})
}

type startCommand struct {
	Args serviceArg `positional-args:"yes" required:"yes"`
}

func (c *startCommand) Execute(args []string) error {
	return withUnit(c.Args.Service, func(a *app, u *serviceunit.Unit) error {
		if u.Running() {
			a.console.printf("Service '%s' is already running (%s).\n", u.Name(), u.PID())
			return nil
		}
		a.console.printf("Starting service '%s':\n", u.Name())
		ok, err := u.Start(a.ctx)
		if err != nil {
			return err
		}
		if !ok {
			return failed("start", u)
		}
		a.console.printf("Service '%s' started (%s).\n", u.Name(), u.PID())
		return nil
	})
}

type stopCommand struct {
	Force bool       `long:"force" short:"f" description:"Signal the process group if the stop hook does not stop the service"`
	Args  serviceArg `positional-args:"yes" required:"yes"`
}

func (c *stopCommand) Execute(args []string) error {
	return withUnit(c.Args.Service, func(a *app, u *serviceunit.Unit) error {
		if !u.Running() && !c.Force {
			a.console.printf("Service '%s' is not running.\n", u.Name())
			return nil
		}
		a.console.printf("Stopping service '%s':\n", u.Name())
		ok, err := u.Stop(a.ctx, c.Force)
		if err != nil {
			return err
		}
		if !ok {
			return failed("stop", u)
		}
		a.console.printf("Service '%s' stopped.\n", u.Name())
		return nil
	})
}

type restartCommand struct {
	Args serviceArg `positional-args:"yes" required:"yes"`
}

func (c *restartCommand) Execute(args []string) error {
	return withUnit(c.Args.Service, func(a *app, u *serviceunit.Unit) error {
		a.console.printf("Restarting service '%s':\n", u.Name())
		ok, err := u.Restart(a.ctx)
		if err != nil {
			return err
		}
		if !ok {
			return failed("restart", u)
		}
		a.console.printf("Service '%s' restarted (%s).\n", u.Name(), u.PID())
		return nil
	})
}

type reloadCommand struct {
	Args serviceArg `positional-args:"yes" required:"yes"`
}

func (c *reloadCommand) Execute(args []string) error {
	return withUnit(c.Args.Service, func(a *app, u *serviceunit.Unit) error {
		if !u.Running() {
			return errors.NewOperationError("Service is not running", nil).WithContext("service", u.Name())
		}
		a.console.printf("Reloading service '%s':\n", u.Name())
		ok, err := u.Reload(a.ctx)
		if err != nil {
			return err
		}
		if !ok {
			return failed("reload", u)
		}
		a.console.printf("Service '%s' reloaded.\n", u.Name())
		return nil
	})
}

type statusCommand struct {
	Args serviceArg `positional-args:"yes" required:"yes"`
}

func (c *statusCommand) Execute(args []string) error {
	return withUnit(c.Args.Service, func(a *app, u *serviceunit.Unit) error {
		switch status := u.Status(); status {
		case serviceunit.StatusActive:
			a.console.printf("%s\t%s\n", status, u.PID())
		default:
			a.console.printf("%s\n", status)
		}
		return nil
	})
}

type configureCommand struct {
	Config string     `long:"config" description:"Values as a JSON object, @FILE to read it from a file or @- for stdin" required:"yes"`
	Force  bool       `long:"force" description:"Run the configure hook even if no value changed"`
	Args   serviceArg `positional-args:"yes" required:"yes"`
}

func (c *configureCommand) Execute(args []string) error {
	return withUnit(c.Args.Service, func(a *app, u *serviceunit.Unit) error {
		if !u.Definition().IsConfigurable() {
			a.console.printf("The '%s' service does not provide configurable parameters.\n", u.Name())
			return nil
		}

		values, err := parseConfigInput(c.Config, os.Stdin)
		if err != nil {
			return err
		}

		current, err := u.Configuration()
		if err != nil {
			return err
		}
		if !c.Force && !changes(current.Values, values) {
			a.console.printf("The configuration has not changed. Skipping the configure hook; use --force to run it.\n")
			return nil
		}

		ok, err := u.Configure(a.ctx, values)
		if err != nil {
			return err
		}
		if !ok {
			return failed("configure", u)
		}
		a.console.printf("Changes applied.\n")
		return nil
	})
}

func changes(current, values map[string]string) bool {
	for k, v := range values {
		if current[k] != v {
			return true
		}
	}
	return false
}

// parseConfigInput accepts inline JSON, @path or @- and returns the object's values as strings
func parseConfigInput(input string, stdin io.Reader) (map[string]string, error) {
	var data []byte
	switch {
	case input == "@-" || input == "@/dev/stdin":
		read, err := io.ReadAll(stdin)
		if err != nil {
			return nil, errors.NewIOError("failed to read configuration from stdin", err)
		}
		data = read
	case strings.HasPrefix(input, "@"):
		path := input[1:]
		read, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.NewValidationError(fmt.Sprintf("Could not locate file: %s", path), err)
		}
		data = read
	default:
		data = []byte(input)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var raw interface{}
	if err := decoder.Decode(&raw); err != nil {
		return nil, errors.NewValidationError("The --config input is not valid JSON", err)
	}
	object, ok := raw.(map[string]interface{})
	if !ok {
		return nil, errors.NewValidationError("The --config input does not produce a hash", nil)
	}

	values := make(map[string]string, len(object))
	for k, v := range object {
		if v == nil {
			values[k] = ""
			continue
		}
		values[k] = fmt.Sprint(v)
	}
	return values, nil
}

type infoCommand struct {
	Args serviceArg `positional-args:"yes" required:"yes"`
}

func (c *infoCommand) Execute(args []string) error {
	return withUnit(c.Args.Service, func(a *app, u *serviceunit.Unit) error {
		def := u.Definition()
		a.console.printf("Name:         %s\n", def.Name())
		a.console.printf("Summary:      %s\n", def.Summary())
		a.console.printf("Directory:    %s\n", def.Directory())
		a.console.printf("Daemon:       %t\n", def.IsDaemon())
		a.console.printf("Reloadable:   %t\n", def.IsReloadable())
		a.console.printf("Configurable: %t\n", def.IsConfigurable())
		a.console.printf("Enabled:      %t\n", u.IsEnabled())
		a.console.printf("Status:       %s\n", u.Status())

		if !def.IsConfigurable() {
			return nil
		}
		cfg, err := u.Configuration()
		if err != nil {
			return err
		}
		a.console.printf("Configuration:\n")
		for _, field := range cfg.Descriptor.Values {
			a.console.printf("  %s (%s): %s\n", field.Label, field.Key, cfg.Values[field.Key])
		}
		return nil
	})
}

type launchCommand struct{}

func (c *launchCommand) Execute(args []string) error {
	return withApp(func(a *app) error {
		controller, err := a.manager.Stack(a.console)
		if err != nil {
			return err
		}
		a.console.printf("Launching enabled services:\n\n")
		result, err := controller.Launch(a.ctx)
		return summarize(a, result, err, "Enabled services launch complete.")
	})
}

type stackCommand struct {
	Args struct {
		Action string `positional-arg-name:"ACTION" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}

func (c *stackCommand) Execute(args []string) error {
	action, err := stack.ParseAction(c.Args.Action)
	if err != nil {
		return err
	}
	return withApp(func(a *app) error {
		controller, err := a.manager.Stack(a.console)
		if err != nil {
			return err
		}
		if action != stack.ActionStatus {
			a.console.printf("%s enabled services:\n\n", strings.TrimSuffix(actionVerb(action), " service"))
		}
		result, err := controller.Run(a.ctx, string(action))
		return summarize(a, result, err, fmt.Sprintf("Stack %s complete.", action))
	})
}

func summarize(a *app, result *stack.Result, err error, done string) error {
	if err != nil {
		return err
	}
	if result.NoEnabledServices {
		a.console.printf("No services are enabled.\n")
		return nil
	}
	if result.Action != stack.ActionStatus {
		a.console.printf("\n%s\n", done)
	}
	if failures := result.Failed(); failures > 0 {
		return errors.NewOperationError(fmt.Sprintf("%d of %d services failed", failures, len(result.Units)), nil).
			WithContext("action", string(result.Action))
	}
	return nil
}

func withUnit(name string, fn func(a *app, u *serviceunit.Unit) error) error {
	return withApp(func(a *app) error {
		u, err := a.manager.Unit(name)
		if err != nil {
			return err
		}
		return fn(a, u)
	})
}
