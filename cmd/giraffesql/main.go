// Command giraffesql is the interactive SQL REPL entrypoint: "SQL> " prompt,
// literal "test" runs internal/selftest, "quit" exits. Grounded on
// cmd/bd/main.go's cobra root-command wiring and original_source/
// sql5300.cpp's prompt/statement-echo/result-printing loop.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ruoyangqiu/5300-Giraffe/internal/catalog"
	"github.com/ruoyangqiu/5300-Giraffe/internal/config"
	"github.com/ruoyangqiu/5300-Giraffe/internal/giraffelog"
	"github.com/ruoyangqiu/5300-Giraffe/internal/selftest"
	"github.com/ruoyangqiu/5300-Giraffe/internal/sqlexec"
	"github.com/ruoyangqiu/5300-Giraffe/internal/sqlparse"
	"github.com/ruoyangqiu/5300-Giraffe/internal/value"
)

var configPath string
var outputFormat string

var rootCmd = &cobra.Command{
	Use:   "giraffesql",
	Short: "giraffesql - an educational relational storage engine",
	Long:  "A small SQL dialect over a record-oriented block store and a B-tree secondary index.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runREPL(os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "giraffe.toml", "path to engine configuration")
	rootCmd.Flags().StringVar(&outputFormat, "format", "text", "result output format: text or yaml")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runREPL(in io.Reader, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("giraffesql: loading config: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("giraffesql: opening data directory: %w", err)
	}

	logger, err := giraffelog.New()
	if err != nil {
		return fmt.Errorf("giraffesql: starting logger: %w", err)
	}
	defer logger.Sync()

	cat, err := catalog.Open(cfg.DataDir)
	if err != nil {
		logger.Error("catalog open failed", "err", err)
		return fmt.Errorf("giraffesql: opening catalog: %w", err)
	}
	defer cat.Close()

	engine := sqlexec.New(cat)
	red := color.New(color.FgRed).SprintFunc()
	logger.Info("session started", "session_id", cat.SessionID(), "data_dir", cfg.DataDir)

	fmt.Fprintf(out, "(giraffesql: running with data directory at %s, session %s)\n", cfg.DataDir, cat.SessionID())
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "SQL> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		switch line {
		case "":
			continue
		case "quit":
			return nil
		case "test":
			selftest.RunAll(out, filepath.Join(cfg.DataDir, ".selftest"))
			continue
		}

		stmt, err := sqlparse.Parse(line)
		if err != nil {
			fmt.Fprintf(out, "%s\n", red("Invalid SQL: "+err.Error()))
			continue
		}
		fmt.Fprintln(out, sqlparse.Stringify(stmt))

		res, err := engine.Execute(stmt)
		if err != nil {
			logger.Warn("statement failed", "stmt", sqlparse.Stringify(stmt), "err", err)
			fmt.Fprintf(out, "%s\n", red(err.Error()))
			continue
		}
		printResult(out, res)
	}
	return nil
}

// printResult renders a sqlexec.Result either as YAML (--format=yaml) via
// catalog.FormatResultYAML, or the way original_source/SQLExec.cpp's
// operator<<(ostream&, const QueryResult&) does by default: column names, a
// "+----------+"-per-column separator, one row per result (INT as a decimal
// integer, TEXT double-quoted, BOOL as true/false), then the message line.
func printResult(out io.Writer, res sqlexec.Result) {
	if outputFormat == "yaml" && res.Columns != nil {
		doc, err := catalog.FormatResultYAML(res.Columns, res.Rows)
		if err != nil {
			fmt.Fprintf(out, "yaml export failed: %v\n", err)
			return
		}
		fmt.Fprint(out, doc)
		fmt.Fprintln(out, res.Message)
		return
	}
	if res.Columns != nil {
		for _, c := range res.Columns {
			fmt.Fprintf(out, "%s ", c)
		}
		fmt.Fprintln(out)
		fmt.Fprint(out, "+")
		for range res.Columns {
			fmt.Fprint(out, "----------+")
		}
		fmt.Fprintln(out)
		for _, row := range res.Rows {
			for _, c := range res.Columns {
				fmt.Fprintf(out, "%s ", formatValue(row[c]))
			}
			fmt.Fprintln(out)
		}
	}
	fmt.Fprintln(out, res.Message)
}

// formatValue renders one column value the way SQLExec.cpp's switch over
// ColumnAttribute::data_type does: INT as a decimal, TEXT double-quoted,
// BOOLEAN as true/false.
func formatValue(v value.Value) string {
	switch v.Kind() {
	case value.KindInt:
		return fmt.Sprintf("%d", v.Int())
	case value.KindText:
		return fmt.Sprintf("%q", v.Text())
	case value.KindBool:
		if v.Bool() {
			return "true"
		}
		return "false"
	default:
		return "???"
	}
}
