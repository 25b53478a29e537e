package gorm

import "os"

func writeYAML(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}
