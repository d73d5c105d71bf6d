package protocol

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

const classesKey = `Software\Classes\` + Scheme

func openCommand(executable string) string {
	return fmt.Sprintf(`"%s" "%%1"`, executable)
}

func isDefaultClient(executable string) (bool, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, classesKey+`\shell\open\command`, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer key.Close()

	command, _, err := key.GetStringValue("")
	if err != nil {
		return false, nil
	}
	return command == openCommand(executable), nil
}

func setAsDefaultClient(executable string) error {
	key, _, err := registry.CreateKey(registry.CURRENT_USER, classesKey, registry.ALL_ACCESS)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", classesKey, err)
	}
	defer key.Close()

	if err := key.SetStringValue("", "URL:Rocket.Chat Protocol"); err != nil {
		return err
	}
	if err := key.SetStringValue("URL Protocol", ""); err != nil {
		return err
	}

	command, _, err := registry.CreateKey(key, `shell\open\command`, registry.ALL_ACCESS)
	if err != nil {
		return fmt.Errorf("failed to create open command key: %w", err)
	}
	defer command.Close()

	return command.SetStringValue("", openCommand(executable))
}
