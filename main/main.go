package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"k8s.io/klog/v2"

	"suratgen"
	"suratgen/assembly"
	"suratgen/config"
	"suratgen/convert"
	"suratgen/database"
	"suratgen/records"
	"suratgen/templatestore"
)

func main() {
	klog.InitFlags(nil)
	configPath := flag.String("config", "", "yaml config (default $SURATGEN_CONFIG or config.yaml)")
	tmpl := flag.String("template", "", "template file name, overrides the form's template")
	dataFile := flag.String("data", "", "form JSON")
	out := flag.String("out", "", "output directory (default from config)")
	pdf := flag.Bool("pdf", false, "also convert the letter to PDF")
	seed := flag.Bool("seed", false, "import the template directory into the catalog and exit")
	watch := flag.Bool("watch", false, "seed, then re-import templates as they change")
	serve := flag.Bool("serve", false, "daemon mode (HTTP API)")
	flag.Parse()
	defer klog.Flush()

	cfg, err := config.Load(*configPath)
	if err != nil {
		klog.Fatalf("config: %v", err)
	}
	if *out != "" {
		cfg.Output.Dir = *out
	}

	a, err := newApp(cfg)
	if err != nil {
		klog.Fatalf("startup: %v", err)
	}

	switch {
	case *serve:
		runServer(a)
	case *watch:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := runWatch(ctx, a); err != nil {
			klog.Fatalf("watch: %v", err)
		}
	case *seed:
		n, err := a.store.SeedFromDirectory()
		if err != nil && !errors.Is(err, templatestore.ErrSeedIncomplete) {
			klog.Fatalf("seed: %v", err)
		}
		if err != nil {
			klog.Warningf("seed: %v", err)
		}
		fmt.Printf("🌱  %d template(s) imported from %s\n", n, a.store.Dir())
	default:
		if *dataFile == "" {
			flag.Usage()
			os.Exit(2)
		}
		if err := render(a, *dataFile, *tmpl, *pdf); err != nil {
			klog.Fatalf("💥  %v", err)
		}
	}
}

// app - everything a generation needs, shared by the CLI and the daemon.
type app struct {
	cfg       *config.Config
	store     *templatestore.Store
	assembler *assembly.Assembler
	records   records.Repository // nil without a database
}

func newApp(cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	var backend templatestore.Backend
	if cfg.Database.Type == "none" {
		catalog := cfg.Templates.CatalogFile
		if catalog == "" {
			catalog = filepath.Join(cfg.Templates.Dir, "templates_data.json")
		}
		backend = templatestore.NewFileBackend(catalog)
	} else {
		if cfg.Database.Type != "mysql" {
			if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0755); err != nil {
				return nil, fmt.Errorf("data dir: %w", err)
			}
		}
		db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN, cfg.Database.Verbose)
		if err != nil {
			return nil, err
		}
		backend = templatestore.NewGormBackend(db)
		a.records = records.NewRepository(db)
	}

	store, err := templatestore.Open(cfg.Templates.Dir, backend)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.assembler = assembly.New(store, newConverter(cfg))
	return a, nil
}

// newConverter - LibreOffice first, headless Chrome as the fallback.
func newConverter(cfg *config.Config) convert.Converter {
	if !cfg.PDF.Enabled {
		return nil
	}
	return convert.Chain{
		&convert.LibreOffice{Binary: cfg.PDF.LibreOfficePath, Timeout: cfg.PDF.Timeout},
		&convert.Chrome{ExecPath: cfg.PDF.ChromePath, Timeout: cfg.PDF.Timeout},
	}
}

// generate runs one form through the assembler and records the result.
// A failed history write is logged, the letter is already on disk.
func (a *app) generate(ctx context.Context, f assembly.Form, extra []suratgen.RowGroup) (*assembly.Result, *records.Record, error) {
	req, err := f.Request(time.Now(), a.cfg.Output.Dir, extra...)
	if err != nil {
		return nil, nil, err
	}
	res, err := a.assembler.Generate(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	if res.PDFErr != nil {
		klog.Warningf("pdf for %s: %v", res.DocxPath, res.PDFErr)
	}
	if len(res.Unresolved) > 0 {
		klog.V(2).Infof("%s: unresolved placeholders %v", f.Template, res.Unresolved)
	}
	if a.records == nil {
		return res, nil, nil
	}

	var category string
	if e, ok := a.store.Entry(f.Template); ok {
		category = string(e.Category)
	}
	rec, err := f.Record(req, res, category)
	if err != nil {
		klog.Warningf("history record for %s: %v", res.DocxPath, err)
		return res, nil, nil
	}
	if err := a.records.Create(rec, "system"); err != nil {
		klog.Warningf("history record for %s: %v", res.DocxPath, err)
		return res, nil, nil
	}
	return res, rec, nil
}

// ---------- CLI render ----------
func render(a *app, dataFile, tmpl string, pdf bool) error {
	f, err := readForm(dataFile)
	if err != nil {
		return err
	}
	if tmpl != "" {
		f.Template = tmpl
	}
	if pdf {
		f.PDF = true
	}

	var extra []suratgen.RowGroup
	if f.RowsXLSX != "" {
		extra, err = readRows(f.RowsXLSX, filepath.Dir(dataFile))
		if err != nil {
			return err
		}
	}

	res, _, err := a.generate(context.Background(), f, extra)
	if err != nil {
		return err
	}
	baseDir, _ := os.Getwd()
	fmt.Println("💚  done: " + strings.TrimPrefix(res.DocxPath, baseDir))
	if res.PDFPath != "" {
		fmt.Println("📄  pdf: " + strings.TrimPrefix(res.PDFPath, baseDir))
	}
	if len(res.Unresolved) > 0 {
		fmt.Printf("⚠️   left unfilled: %s\n", strings.Join(res.Unresolved, ", "))
	}
	return nil
}

func readForm(path string) (assembly.Form, error) {
	var f assembly.Form
	raw, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read form: %w", err)
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		return f, fmt.Errorf("parse form: %w", err)
	}
	return f, nil
}

// readRows - row groups from a workbook; relative paths are taken from the
// form's directory.
func readRows(path, baseDir string) ([]suratgen.RowGroup, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rows workbook: %w", err)
	}
	defer func() {
		_ = fh.Close()
	}()
	return assembly.LoadRowGroups(fh)
}
