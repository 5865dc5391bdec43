package app

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sri-dhar/arch-cleaner/internal/config"
)

var (
	configList bool
	configEdit bool

	configCmd = &cobra.Command{
		Use:   "config [key] [value]",
		Short: "Show or change configuration values",
		Long: `With no arguments, print the config file location. With --list, print
every effective setting. With a key, print its value; with a key and a
value, set it and write the config file.`,
		Example: `  # Where the config lives
  arch-cleaner config

  # All effective settings
  arch-cleaner config --list

  # One setting
  arch-cleaner config thresholds.old_file

  # Change a setting
  arch-cleaner config thresholds.old_file 6m

  # Open the config in $EDITOR
  arch-cleaner config --edit`,
		Args: cobra.MaximumNArgs(2),
		RunE: runConfig,
	}
)

func init() {
	configCmd.Flags().BoolVarP(&configList, "list", "l", false, "list all settings")
	configCmd.Flags().BoolVarP(&configEdit, "edit", "e", false, "open the config file in $EDITOR")
}

func runConfig(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()

	switch {
	case configEdit:
		return editConfig(v)
	case configList:
		keys := v.AllKeys()
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Printf("%s = %v\n", key, v.Get(key))
		}
		return nil
	case len(args) == 1:
		key := args[0]
		if !v.IsSet(key) {
			return fmt.Errorf("unknown setting %q, see 'arch-cleaner config --list'", key)
		}
		fmt.Printf("%v\n", v.Get(key))
		return nil
	case len(args) == 2:
		key, value := args[0], args[1]
		if !v.IsSet(key) {
			return fmt.Errorf("unknown setting %q, see 'arch-cleaner config --list'", key)
		}
		v.Set(key, value)
		if err := writeConfig(v); err != nil {
			return err
		}
		fmt.Printf("%s = %v\n", key, v.Get(key))
		return nil
	default:
		path := v.ConfigFileUsed()
		if path == "" {
			dir, err := config.Dir()
			if err != nil {
				return err
			}
			path = filepath.Join(dir, "config.toml")
		}
		fmt.Printf("Config file: %s\n", path)
		fmt.Println("Use 'arch-cleaner config --list' to see all settings.")
		return nil
	}
}

func writeConfig(v *viper.Viper) error {
	if v.ConfigFileUsed() != "" {
		if err := v.WriteConfig(); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		return nil
	}

	dir, err := config.Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(filepath.Join(dir, "config.toml")); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func editConfig(v *viper.Viper) error {
	path := v.ConfigFileUsed()
	if path == "" {
		dir, err := config.Dir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.toml")
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	c := exec.Command(editor, path)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("editor exited with an error: %w", err)
	}
	return nil
}
