package cli

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/urfave/cli/v2"

	"go.viam.com/navvolume/config"
)

// SchemaAction prints the JSON schema config files are checked against.
func SchemaAction(c *cli.Context) error {
	schema := jsonschema.Reflect(&config.Config{})
	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", out)
	return nil
}
