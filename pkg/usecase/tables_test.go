package usecase_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brendanbecker/ce101/pkg/domain/model"
	"github.com/brendanbecker/ce101/pkg/domain/types"
	"github.com/brendanbecker/ce101/pkg/usecase"
	"github.com/m-mizutani/gt"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o600)).Required()
	return path
}

func TestLoadRequirements(t *testing.T) {
	t.Run("built-in table", func(t *testing.T) {
		table, err := usecase.LoadRequirements("")
		gt.NoError(t, err).Required()
		gt.Bool(t, len(table.Requirements) > 0).True()

		checks := usecase.DefaultChecks()
		for _, req := range table.Requirements {
			_, ok := checks[req.Check]
			gt.Bool(t, ok).True()
		}

		byID := make(map[string]model.Requirement, len(table.Requirements))
		for _, req := range table.Requirements {
			byID[req.ID] = req
		}
		replicas := byID["REL-001"]
		for tier, want := range map[types.Tier]int{types.Tier1: 2, types.Tier2: 1, types.Tier3: 1} {
			got, err := replicas.Resolve(tier).IntParam("min", 0)
			gt.NoError(t, err).Required()
			gt.Value(t, got).Equal(want)
		}

		netpol := byID["SEC-003"]
		gt.Value(t, netpol.LevelFor(types.Tier1)).Equal(types.LevelRequired)
		gt.Value(t, netpol.LevelFor(types.Tier2)).Equal(types.LevelRecommended)
		gt.Value(t, netpol.LevelFor(types.Tier3)).Equal(types.LevelOptional)

		gt.Value(t, byID["MON-003"].Check).Equal("prometheus-rule")
		gt.Value(t, byID["DOC-001"].Check).Equal("doc-file")
		gt.Value(t, byID["DOC-002"].Check).Equal("doc-file")
	})

	t.Run("custom table", func(t *testing.T) {
		path := writeFile(t, "reqs.yaml", `
requirements:
  - id: R-1
    name: replicas
    severity: high
    tiers: [tier-1]
    check: min-replicas
    params:
      min: 3
`)
		table, err := usecase.LoadRequirements(path)
		gt.NoError(t, err).Required()
		gt.Array(t, table.Requirements).Length(1).Required()
		n, err := table.Requirements[0].IntParam("min", 2)
		gt.NoError(t, err).Required()
		gt.Value(t, n).Equal(3)
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		path := writeFile(t, "reqs.yaml", `
requirements:
  - id: R-1
    name: replicas
    severity: high
    check: min-replicas
    blocker: true
`)
		_, err := usecase.LoadRequirements(path)
		gt.Value(t, err).NotNil()
	})

	t.Run("invalid severity", func(t *testing.T) {
		path := writeFile(t, "reqs.yaml", `
requirements:
  - id: R-1
    name: replicas
    severity: blocker
    check: min-replicas
`)
		_, err := usecase.LoadRequirements(path)
		gt.Error(t, err).Is(model.ErrInvalidSeverity)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := usecase.LoadRequirements(filepath.Join(t.TempDir(), "none.yaml"))
		gt.Value(t, err).NotNil()
	})
}

func TestLoadSLOTemplates(t *testing.T) {
	table, err := usecase.LoadSLOTemplates("")
	gt.NoError(t, err).Required()

	tmpl, ok := table.Lookup("api", types.Tier1)
	gt.Bool(t, ok).True()
	gt.Bool(t, len(tmpl.SLOs) > 0).True()

	_, ok = table.Lookup("api", types.Tier("tier-9"))
	gt.Bool(t, ok).False()
}
