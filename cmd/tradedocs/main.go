package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/tradedocs/internal/app"
	"github.com/joseph-ayodele/tradedocs/internal/common"
	"github.com/joseph-ayodele/tradedocs/internal/entity"
	"github.com/joseph-ayodele/tradedocs/internal/server"
)

const usage = `usage: tradedocs <command> [flags]

commands:
  extract  -in a.pdf [-out a.xlsx] [-json]     extract items from one document
  compare  -a a.pdf -b b.pdf [-out cmp.xlsx]    reconcile two documents
  match    -in new.pdf                          reconcile against stored documents
  submit   -root dir [-addr host:port]          queue a directory on a running tradedocsd
  rules                                         print the effective rulebook
`

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	if len(os.Args) < 2 {
		printError("%s", usage)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "extract":
		err = runExtract(ctx, args)
	case "compare":
		err = runCompare(ctx, args)
	case "match":
		err = runMatch(ctx, args)
	case "submit":
		err = runSubmit(ctx, args)
	case "rules":
		err = runRules(ctx, args)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		printError("unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
}

type commonFlags struct {
	inmem   *bool
	verbose *bool
}

func register(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		inmem:   fs.Bool("inmem", false, "use an in-memory SQLite database"),
		verbose: fs.Bool("v", false, "debug logging"),
	}
}

func (c commonFlags) build(ctx context.Context) (*app.App, *slog.Logger, error) {
	level := slog.LevelWarn
	if *c.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if *c.inmem {
		cfg.Database.DSN = "file::memory:?_pragma=foreign_keys(1)"
	}
	a, err := app.Build(ctx, cfg, logger)
	return a, logger, err
}

func runExtract(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	in := fs.String("in", "", "input PDF (required)")
	out := fs.String("out", "", "output file (defaults to the input name with .xlsx or .json)")
	asJSON := fs.Bool("json", false, "write JSON instead of XLSX")
	cf := register(fs)
	_ = fs.Parse(args)
	if *in == "" {
		return errors.New("-in is required")
	}
	if *out == "" {
		*out = replaceExt(*in, *asJSON)
	}

	a, _, err := cf.build(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	doc, items, err := extract(ctx, a, *in)
	if err != nil {
		return err
	}
	var data []byte
	if *asJSON || strings.EqualFold(filepath.Ext(*out), ".json") {
		data, err = json.MarshalIndent(nonNil(items), "", "  ")
	} else {
		data, err = a.Exporter.ItemsXLSX(items)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return err
	}
	if len(items) == 0 {
		printError("Warning: no products found in %s\n", *in)
	}
	fmt.Printf("%s: %d items (status %s, needs review %t) -> %s\n", *in, len(items), doc.Status, doc.NeedsReview, *out)
	return nil
}

func runCompare(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	docA := fs.String("a", "", "first PDF (required)")
	docB := fs.String("b", "", "second PDF (required)")
	out := fs.String("out", "", "comparison output, .xlsx or .json (optional)")
	cf := register(fs)
	_ = fs.Parse(args)
	if *docA == "" || *docB == "" {
		return errors.New("-a and -b are required")
	}

	a, _, err := cf.build(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	d1, _, err := extract(ctx, a, *docA)
	if err != nil {
		return err
	}
	d2, _, err := extract(ctx, a, *docB)
	if err != nil {
		return err
	}
	cmp, err := a.Processor.Reconcile(ctx, d1.ID, d2.ID)
	if err != nil {
		return err
	}
	printComparison(cmp.Result)
	if *out == "" {
		return nil
	}
	var data []byte
	if strings.EqualFold(filepath.Ext(*out), ".json") {
		data, err = a.Exporter.ComparisonJSON(cmp.Result)
	} else {
		data, err = a.Exporter.ComparisonXLSX(cmp.Result)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(*out, data, 0o644)
}

func runMatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	in := fs.String("in", "", "input PDF (required)")
	cf := register(fs)
	_ = fs.Parse(args)
	if *in == "" {
		return errors.New("-in is required")
	}

	a, _, err := cf.build(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	doc, _, err := extract(ctx, a, *in)
	if err != nil {
		return err
	}
	m, err := a.Processor.ReconcileWithExisting(ctx, doc.ID)
	if err != nil {
		return err
	}
	fmt.Printf("best match %s (existence rate %.2f%%)\n", m.CandidateID, m.ExistenceRate)
	if m.Comparison == nil {
		fmt.Println("overlap below threshold; no detailed comparison")
		return nil
	}
	printComparison(m.Comparison.Result)
	return nil
}

func runSubmit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	addr := fs.String("addr", "localhost:8080", "tradedocsd gRPC address")
	root := fs.String("root", "", "directory to queue (required)")
	skipHidden := fs.Bool("skip-hidden", true, "skip dot files and directories")
	_ = fs.Parse(args)
	if *root == "" {
		return errors.New("-root is required")
	}
	abs, err := filepath.Abs(*root)
	if err != nil {
		return err
	}

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	req, err := structpb.NewStruct(map[string]any{"root": abs, "skip_hidden": *skipHidden})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	resp, err := server.NewDocumentServiceClient(conn).Call(ctx, server.MethodSubmitDirectory, req)
	if err != nil {
		return err
	}
	b, err := protojson.MarshalOptions{Multiline: true}.Marshal(resp)
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func runRules(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("rules", flag.ExitOnError)
	cf := register(fs)
	_ = fs.Parse(args)
	*cf.inmem = true

	a, _, err := cf.build(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	b, err := json.MarshalIndent(a.Rulebook, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

// extract processes path and returns the stored document with its items,
// including documents that were already extracted.
func extract(ctx context.Context, a *app.App, path string) (*entity.Document, []entity.ExtractedItem, error) {
	out, err := a.Processor.ProcessFile(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	if out.Duplicate || out.Result == nil {
		return a.Processor.Items(ctx, out.Document.ID)
	}
	return out.Document, out.Result.Items, nil
}

func printComparison(r *entity.ComparisonResult) {
	fmt.Printf("match rate        %.2f%%\n", r.MatchRate)
	fmt.Printf("product existence %.2f%%\n", r.ProductExistenceRate)
	fmt.Printf("detail score      %.2f%%\n", r.DetailScore)
	fmt.Printf("products          %d total, %d common, %d doc1 only, %d doc2 only\n",
		r.TotalProducts, r.CommonProducts, r.Doc1OnlyProducts, r.Doc2OnlyProducts)
	for _, d := range r.Discrepancies {
		fmt.Printf("  %s size %s %s: %q vs %q (%.0f)\n", d.ProductCode, d.Size, d.Field, d.Doc1Value, d.Doc2Value, d.Similarity)
	}
}

func replaceExt(path string, asJSON bool) string {
	ext := ".xlsx"
	if asJSON {
		ext = ".json"
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

func nonNil(items []entity.ExtractedItem) []entity.ExtractedItem {
	if items == nil {
		return []entity.ExtractedItem{}
	}
	return items
}
