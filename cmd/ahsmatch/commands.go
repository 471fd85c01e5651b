package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v2"

	"github.com/rencanakan/ahsmatch/internal/breakdown"
	apperrors "github.com/rencanakan/ahsmatch/internal/errors"
	"github.com/rencanakan/ahsmatch/internal/match"
	"github.com/rencanakan/ahsmatch/internal/service"
)

func matchCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: ahsmatch match <description>")
	}
	eng, err := newEngine(c, false)
	if err != nil {
		return err
	}
	defer eng.close()

	description := strings.Join(c.Args().Slice(), " ")
	out, err := eng.matcher.BestMatch(context.Background(), description, c.String("unit"))
	if err != nil {
		return err
	}

	if out.Alternatives != nil {
		return writeJSON(out.Alternatives)
	}
	return writeJSON(map[string]any{"status": out.Status, "match": out.MatchPayload()})
}

// bulkCommand matches every JSON file selected by the glob. Each file
// holds an array of {description, unit, task_id} items; results are
// keyed by file path.
func bulkCommand(c *cli.Context) error {
	eng, err := newEngine(c, false)
	if err != nil {
		return err
	}
	defer eng.close()

	pattern := c.String("input")
	paths, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return fmt.Errorf("invalid glob %q: %w", pattern, err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files match %q", pattern)
	}
	sort.Strings(paths)

	output := make(map[string][]service.BulkResult, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		var items []service.BulkItem
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		output[path] = eng.matcher.BulkBestMatch(context.Background(), items)
	}
	return writeJSON(output)
}

func searchCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: ahsmatch search <term>")
	}
	eng, err := newEngine(c, false)
	if err != nil {
		return err
	}
	defer eng.close()

	term := strings.Join(c.Args().Slice(), " ")
	results := eng.matcher.SearchCandidates(context.Background(), term, c.Int("limit"))
	if results == nil {
		results = []*match.Result{}
	}
	return writeJSON(map[string]any{"results": results})
}

func breakdownCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: ahsmatch breakdown <code>")
	}
	eng, err := newEngine(c, false)
	if err != nil {
		return err
	}
	defer eng.close()

	code := c.Args().First()
	bd, err := eng.bd.Breakdown(code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("no breakdown for code %q", code)
		}
		return err
	}
	return writeJSON(map[string]any{
		"code":      breakdown.CanonicalCode(code),
		"breakdown": bd,
	})
}

func writeJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
