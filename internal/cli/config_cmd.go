// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - The config command: inspect and edit meshbench.toml.

package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/meshbench/internal/adapter"
	"github.com/jeranaias/meshbench/internal/config"
	"github.com/jeranaias/meshbench/internal/ui/components"
)

var configSubcommands = []string{"show", "get", "set", "keys", "path", "init"}

// HandleConfig handles the config command.
func HandleConfig(args Args) error {
	p := args.Parser("force")

	switch sub := p.Subcommand(); sub {
	case "", "show":
		return configShow(args)
	case "get":
		return configGet(args, p)
	case "set":
		return configSet(args, p)
	case "keys":
		return configKeys(args)
	case "path", "paths":
		return configPath(args)
	case "init", "setup":
		return configInit(args, p)
	default:
		return ErrUnknownSubcommand("config", sub, configSubcommands)
	}
}

// configTarget is the file config set and config init write.
func configTarget(args Args) string {
	if args.ConfigPath != "" {
		return args.ConfigPath
	}
	return config.LocalFileName
}

// loadFileOnly reads path over the defaults without environment overrides,
// so saving it back never persists the environment.
func loadFileOnly(path string) (*config.Config, bool, error) {
	cfg := config.Default()
	if _, err := os.Stat(path); err != nil {
		return cfg, false, nil
	}
	if err := config.LoadTOML(cfg, path); err != nil {
		return nil, true, err
	}
	return cfg, true, nil
}

// configValueString formats a config value the way config set accepts it.
func configValueString(v interface{}) string {
	switch val := v.(type) {
	case []float64:
		parts := make([]string, len(val))
		for i, f := range val {
			parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(val, ",")
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case *float64:
		if val == nil {
			return "unset"
		}
		return strconv.FormatFloat(*val, 'g', -1, 64)
	}
	return fmt.Sprint(v)
}

// =============================================================================
// SHOW / GET / KEYS / PATH
// =============================================================================

func configShow(args Args) error {
	cfg, err := args.LoadConfig()
	if err != nil {
		return err
	}
	if args.JSON {
		values := make(map[string]interface{})
		for _, key := range config.GetAllKeys() {
			if v, err := cfg.Get(key); err == nil {
				values[key] = v
			}
		}
		return NewJSONResponse("config show", values).Print()
	}

	if IsStdoutTTY() && ColorsEnabled() {
		block := components.NewCodeBlock("toml", cfg.String())
		block.MaxWidth = GetTerminalWidth()
		fmt.Println(block.Render())
		return nil
	}
	fmt.Print(cfg.String())
	return nil
}

func configGet(args Args, p *ArgParser) error {
	key := p.Positional(1)
	if key == "" {
		return ErrMissingArgument("key", "meshbench config get suite.repeats")
	}
	cfg, err := args.LoadConfig()
	if err != nil {
		return err
	}
	v, err := cfg.Get(key)
	if err != nil {
		return NewValidationError("key", key, err.Error())
	}
	if args.JSON {
		return NewJSONResponse("config get", ConfigValueData{Key: key, Value: v}).Print()
	}
	fmt.Println(configValueString(v))
	return nil
}

func configKeys(args Args) error {
	keys := config.GetAllKeys()
	if args.JSON {
		return NewJSONResponse("config keys", keys).Print()
	}
	for _, k := range keys {
		fmt.Println(k)
	}
	return nil
}

func configPath(args Args) error {
	paths := config.SearchPaths()
	if args.ConfigPath != "" {
		paths = []string{args.ConfigPath}
	}
	cfg, err := args.LoadConfig()
	if err != nil {
		return err
	}
	historyPath, err := cfg.HistoryPath()
	if err != nil {
		return err
	}

	if args.JSON {
		type pathData struct {
			Path   string `json:"path"`
			Exists bool   `json:"exists"`
		}
		data := struct {
			Search  []pathData `json:"search"`
			History string     `json:"history"`
		}{History: historyPath}
		for _, p := range paths {
			_, err := os.Stat(p)
			data.Search = append(data.Search, pathData{Path: p, Exists: err == nil})
		}
		return NewJSONResponse("config path", data).Print()
	}

	fmt.Println(TitleStyle.Render("Config search path"))
	for _, p := range paths {
		status := DimStyle.Render("(not found)")
		if _, err := os.Stat(p); err == nil {
			status = SuccessStyle.Render("(found)")
		}
		fmt.Printf("  %s %s\n", p, status)
	}
	fmt.Printf("\n%s %s\n", RenderLabel("History:", 12), historyPath)
	return nil
}

// =============================================================================
// SET
// =============================================================================

func configSet(args Args, p *ArgParser) error {
	key, value := p.Positional(1), p.Positional(2)
	if key == "" || p.PositionalCount() < 3 {
		return ErrMissingArgument("key and value", "meshbench config set suite.repeats 5")
	}

	path := configTarget(args)
	cfg, _, err := loadFileOnly(path)
	if err != nil {
		return err
	}
	var typed interface{} = value
	if cur, err := cfg.Get(key); err == nil {
		if _, isBool := cur.(bool); isBool {
			b, err := ParseBoolString(value)
			if err != nil {
				return NewValidationError(key, value, err.Error())
			}
			typed = b
		}
	}
	if err := cfg.Set(key, typed); err != nil {
		return NewValidationError(key, value, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return NewCommandError("config", "set", "could not save "+path, err)
	}

	v, _ := cfg.Get(key)
	if args.JSON {
		return NewJSONResponse("config set", ConfigValueData{Key: key, Value: v, Path: path}).Print()
	}
	fmt.Printf("%s %s = %s (%s)\n", RenderStatus("ok"), key, configValueString(v), path)
	return nil
}

// =============================================================================
// INIT WIZARD
// =============================================================================

// initQuestions are asked in order by config init.
var initQuestions = []struct {
	key    string
	prompt string
}{
	{"software", "Software name"},
	{"backend.kind", "Backend kind (" + strings.Join(adapter.Kinds(), ", ") + ")"},
	{"backend.command", "Backend command or mesh file"},
	{"suite.testcase", "Test case file"},
	{"suite.repeats", "Repeats per scenario"},
	{"suite.sizes", "Sweep sizes"},
	{"output.dir", "Output directory"},
}

// configInit walks through the main settings with line editing and writes
// the result.
func configInit(args Args, p *ArgParser) error {
	if err := RequiresTTY("run the setup wizard"); err != nil {
		return err
	}
	path := configTarget(args)
	cfg, exists, err := loadFileOnly(path)
	if err != nil {
		return err
	}
	if exists && !p.BoolFlag("force") {
		return NewValidationError(path, "", "already exists; use --force to edit it")
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(input string) []string {
		var out []string
		for _, k := range adapter.Kinds() {
			if strings.HasPrefix(k, input) {
				out = append(out, k)
			}
		}
		return out
	})

	fmt.Println(TitleStyle.Render("meshbench setup"))
	fmt.Println(DimStyle.Render("Press Enter to keep the suggested value, Ctrl+C to cancel."))
	fmt.Println()

	for _, q := range initQuestions {
		current, _ := cfg.Get(q.key)
		for {
			answer, err := line.PromptWithSuggestion(q.prompt+": ", configValueString(current), -1)
			if err == liner.ErrPromptAborted {
				return fmt.Errorf("setup cancelled")
			}
			if err != nil {
				return err
			}
			answer = strings.TrimSpace(answer)
			if answer == "" {
				break
			}
			if err := cfg.Set(q.key, answer); err != nil {
				fmt.Println(WarningStyle.Render("  " + err.Error()))
				continue
			}
			break
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return NewCommandError("config", "init", "could not save "+path, err)
	}
	fmt.Printf("\n%s wrote %s\n", RenderStatus("ok"), path)
	return nil
}
