package cli

import (
	"encoding/json"
	"fmt"
)

// printJSON marshals v as indented JSON to stdout, regardless of
// formatFlag for now — a plain-text renderer can be added per command
// as the need arises (teacher's CLI defaults to JSON throughout).
func printJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
