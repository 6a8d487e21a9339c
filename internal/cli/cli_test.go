package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pgEdge/pgedge-revreport/internal/report"
	_ "github.com/pgEdge/pgedge-revreport/internal/source/synthetic"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores every flag of cmd and its subcommands to its default
// and clears the Changed mark, so one execution cannot leak into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "pgedge-revreport") {
		t.Errorf("version output = %q", out)
	}
}

func TestSourcesCommand(t *testing.T) {
	out, err := execute(t, "sources")
	if err != nil {
		t.Fatalf("sources failed: %v", err)
	}
	if !strings.Contains(out, "synthetic") {
		t.Errorf("sources output should list synthetic:\n%s", out)
	}
}

func TestReportSyntheticJSON(t *testing.T) {
	out, err := execute(t, "report", "--source", "synthetic", "--orders", "200",
		"--seed", "7", "--format", "json", "--log-level", "error")
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}

	var doc report.Document
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("report output is not JSON: %v\n%s", err, out)
	}
	if len(doc.Rows) == 0 {
		t.Fatal("report produced no rows")
	}
	for i := 1; i < len(doc.Rows); i++ {
		prev, cur := doc.Rows[i-1], doc.Rows[i]
		if prev.Category > cur.Category ||
			(prev.Category == cur.Category && prev.Month >= cur.Month) {
			t.Errorf("rows out of order at %d: %+v then %+v", i, prev, cur)
		}
	}
}

func TestReportRecordRequiresPostgres(t *testing.T) {
	_, err := execute(t, "report", "--source", "synthetic", "--record", "--log-level", "error")
	if err == nil || !strings.Contains(err.Error(), "--record") {
		t.Errorf("expected --record error, got %v", err)
	}
}

func TestFlagsResetBetweenExecutions(t *testing.T) {
	t.Run("first", func(t *testing.T) {
		_, _ = execute(t, "report", "--source", "synthetic", "--record",
			"--seed", "9", "--defect-rate", "0.5", "--workers", "3", "--log-level", "error")
	})

	t.Run("second", func(t *testing.T) {
		if reportRecord || reportSeed != 0 || reportDefectRate != 0 || reportWorkers != 0 {
			t.Errorf("flag values leaked: record=%v seed=%d defect-rate=%v workers=%d",
				reportRecord, reportSeed, reportDefectRate, reportWorkers)
		}
		if sourceName != "" || logLevel != "" {
			t.Errorf("persistent flags leaked: source=%q log-level=%q", sourceName, logLevel)
		}
		for _, name := range []string{"seed", "defect-rate", "record"} {
			if reportCmd.Flags().Changed(name) {
				t.Errorf("--%s still marked as changed", name)
			}
		}

		out, err := execute(t, "report", "--source", "synthetic", "--orders", "50",
			"--format", "csv", "--log-level", "error")
		if err != nil {
			t.Fatalf("report after --record run failed: %v", err)
		}
		if !strings.HasPrefix(out, "category,") {
			t.Errorf("expected csv output, got:\n%s", out)
		}
	})
}

func TestVerifyRequiresPostgres(t *testing.T) {
	_, err := execute(t, "verify", "--source", "synthetic", "--log-level", "error")
	if err == nil {
		t.Error("expected error for verify with the synthetic source")
	}
}
