package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mesh-intelligence/qcwatch/pkg/sqlite"
	"github.com/mesh-intelligence/qcwatch/pkg/types"
)

// dateLayouts are accepted for --date, --from and --to, in local time
// unless the value carries a zone.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, usageErrorf("unrecognized date %q (want YYYY-MM-DD[ HH:MM[:SS]] or RFC 3339)", s)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// openStore loads the runtime config and attaches the store. The caller
// must Detach it.
func openStore() (types.Store, types.Config, error) {
	cfg, _, err := loadRuntimeConfig()
	if err != nil {
		return nil, types.Config{}, err
	}
	store, err := sqlite.Open(cfg)
	if err != nil {
		return nil, types.Config{}, fmt.Errorf("attach store: %w", err)
	}
	return store, cfg, nil
}
