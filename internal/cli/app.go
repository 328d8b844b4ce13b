// Package cli implements the spoonorder command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/piwi3910/spoonorder/internal/export"
	"github.com/piwi3910/spoonorder/internal/gcode"
	"github.com/piwi3910/spoonorder/internal/importer"
	"github.com/piwi3910/spoonorder/internal/model"
	"github.com/piwi3910/spoonorder/internal/project"
	"github.com/piwi3910/spoonorder/internal/reorder"
)

// Exit codes returned by Run.
const (
	ExitOK      = 0
	ExitFailed  = 1 // at least one file could not be rewritten
	ExitUsage   = 2
	recentLimit = 10
)

// errUsage marks errors caused by the command line itself.
var errUsage = errors.New("usage")

// Options holds the parsed command line.
type Options struct {
	Output        string
	InPlace       bool
	Restore       bool
	Mode          string
	Marker        string
	Profile       string
	ImportProfile string
	SaveProfile   bool
	ListProfiles  bool
	ReportPDF     string
	ReportXLSX    string
	ConfigPath    string
	ProfilesPath  string
	EnvFile       string
	Debug         bool
	Files         []string

	changed map[string]bool
}

// App holds the state of one command invocation.
type App struct {
	stdout io.Writer
	log    *log.Logger

	opts     Options
	config   model.AppConfig
	settings model.RunSettings
	profile  model.PrintProfile
	custom   []model.PrintProfile
}

func NewApp(stdout, stderr io.Writer) *App {
	return &App{
		stdout: stdout,
		log:    log.New(stderr, "spoonorder: ", 0),
	}
}

// Run executes the command with args (without the program name) and returns
// the process exit code.
func (a *App) Run(args []string) int {
	if err := a.parseFlags(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return ExitOK
		}
		a.log.Print(err)
		return ExitUsage
	}

	if err := a.setup(); err != nil {
		a.log.Print(err)
		if errors.Is(err, errUsage) {
			return ExitUsage
		}
		return ExitFailed
	}

	if a.opts.ListProfiles {
		a.listProfiles()
	}
	if len(a.opts.Files) == 0 {
		if a.opts.ListProfiles || a.opts.SaveProfile {
			return ExitOK
		}
		a.log.Print("no input files (see --help)")
		return ExitUsage
	}

	if a.opts.Restore {
		return a.restoreAll()
	}

	code := ExitOK
	for _, path := range a.opts.Files {
		if err := a.processFile(path); err != nil {
			a.log.Printf("%s: %v", path, err)
			code = ExitFailed
			continue
		}
		a.config.AddRecentFile(path, recentLimit)
	}

	if err := project.SaveAppConfig(a.opts.ConfigPath, a.config); err != nil {
		a.log.Printf("could not save config: %v", err)
	}
	return code
}

// ─── Setup ─────────────────────────────────────────────────

func (a *App) parseFlags(args []string) error {
	fs := pflag.NewFlagSet("spoonorder", pflag.ContinueOnError)
	fs.SetOutput(a.log.Writer())
	fs.Usage = func() {
		fmt.Fprintf(a.log.Writer(), "Usage: spoonorder [flags] FILE.gcode [FILE.gcode ...]\n\n")
		fmt.Fprintf(a.log.Writer(), "Moves the sections that print helper meshes (spoons) to the start or end\nof every layer of a sliced plate.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	o := &a.opts
	fs.StringVarP(&o.Output, "output", "o", "", "output file (single input only; default <name>_spoons<ext>)")
	fs.BoolVar(&o.InPlace, "in-place", false, "replace the input file, keeping the original as <file>.orig")
	fs.BoolVar(&o.Restore, "restore", false, "put back the originals kept by --in-place")
	fs.StringVarP(&o.Mode, "mode", "m", "", "reorder mode: spoons-first, spoons-last or unchanged")
	fs.StringVar(&o.Marker, "marker", "", "mesh name fragment that marks target sections (default \""+model.DefaultTargetMarker+"\")")
	fs.StringVarP(&o.Profile, "profile", "p", "", "print profile: built-in or saved name, or a JSON/YAML file")
	fs.StringVar(&o.ImportProfile, "import-profile", "", "read the print profile from a CSV or XLSX settings sheet")
	fs.BoolVar(&o.SaveProfile, "save-profile", false, "store the selected profile with the saved profiles")
	fs.BoolVar(&o.ListProfiles, "list-profiles", false, "list available print profiles")
	fs.StringVar(&o.ReportPDF, "report-pdf", "", "write a PDF report of the rewrite")
	fs.StringVar(&o.ReportXLSX, "report-xlsx", "", "write an Excel report of the rewrite")
	fs.StringVar(&o.ConfigPath, "config", project.DefaultConfigPath(), "application config file")
	fs.StringVar(&o.ProfilesPath, "profiles", "", "saved profiles file (JSON or YAML)")
	fs.StringVar(&o.EnvFile, "env-file", ".env", "file with SPOONORDER_* variables")
	fs.BoolVar(&o.Debug, "debug", false, "log per-layer decisions")

	if err := fs.Parse(args); err != nil {
		return err
	}
	o.Files = fs.Args()
	o.changed = map[string]bool{}
	fs.Visit(func(f *pflag.Flag) { o.changed[f.Name] = true })

	if o.Output != "" && len(o.Files) > 1 {
		return fmt.Errorf("--output needs exactly one input file")
	}
	if o.Output != "" && o.InPlace {
		return fmt.Errorf("--output and --in-place cannot be combined")
	}
	if o.Profile != "" && o.ImportProfile != "" {
		return fmt.Errorf("--profile and --import-profile cannot be combined")
	}
	return nil
}

// setup resolves settings with flags over environment over config file,
// then the print profile.
func (a *App) setup() error {
	if err := project.LoadEnv(a.opts.EnvFile); err != nil {
		return err
	}

	cfg, err := project.LoadAppConfig(a.opts.ConfigPath)
	if err != nil {
		return err
	}
	a.config = cfg

	a.settings = model.DefaultRunSettings()
	a.config.ApplyToSettings(&a.settings)
	if err := project.ApplyEnv(&a.settings, nil); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if err := a.applyFlags(); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if a.settings.Debug {
		a.log.Printf("settings: mode=%s marker=%q profile=%q", a.settings.Mode, a.settings.TargetMarker, a.settings.Profile)
	}

	if a.opts.ProfilesPath == "" {
		path, err := project.DefaultProfilesPath()
		if err != nil {
			return err
		}
		a.opts.ProfilesPath = path
	}
	a.custom, err = project.LoadCustomProfiles(a.opts.ProfilesPath)
	if err != nil {
		return err
	}

	if err := a.loadProfile(); err != nil {
		return err
	}
	if a.opts.SaveProfile {
		a.custom = project.AddCustomProfile(a.custom, a.profile)
		if err := project.SaveCustomProfiles(a.opts.ProfilesPath, a.custom); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
		a.log.Printf("saved profile %q to %s", a.profile.Name, a.opts.ProfilesPath)
	}
	return nil
}

func (a *App) applyFlags() error {
	o := a.opts
	if o.changed["mode"] {
		mode, err := model.ParseReorderMode(o.Mode)
		if err != nil {
			return err
		}
		a.settings.Mode = mode
	}
	if o.changed["marker"] {
		if strings.TrimSpace(o.Marker) == "" {
			return fmt.Errorf("--marker must not be empty")
		}
		a.settings.TargetMarker = o.Marker
	}
	if o.changed["profile"] {
		a.settings.Profile = o.Profile
	}
	if o.changed["debug"] {
		a.settings.Debug = o.Debug
	}
	return nil
}

func (a *App) loadProfile() error {
	if a.opts.ImportProfile != "" {
		result := importer.Import(a.opts.ImportProfile)
		for _, w := range result.Warnings {
			a.debugf("%s: %s", a.opts.ImportProfile, w)
		}
		if !result.OK() {
			return fmt.Errorf("failed to import profile from %s: %s", a.opts.ImportProfile, strings.Join(result.Errors, "; "))
		}
		a.profile = result.Profile
		a.settings.Profile = a.profile.Name
		return nil
	}

	profile, err := project.ResolveProfile(a.settings.Profile, a.custom)
	if err != nil {
		return err
	}
	if err := profile.Validate(); err != nil {
		return err
	}
	a.profile = profile
	return nil
}

func (a *App) listProfiles() {
	for _, p := range model.PrintProfiles {
		fmt.Fprintf(a.stdout, "%-20s built-in  %s\n", p.Name, p.Description)
	}
	for _, p := range a.custom {
		fmt.Fprintf(a.stdout, "%-20s saved     %s\n", p.Name, p.Description)
	}
}

// ─── Actions ───────────────────────────────────────────────

// processFile rewrites one plate. If the rewrite fails the original gcode
// is written to the output instead, or the input left alone with
// --in-place, and the error is returned.
func (a *App) processFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	original := string(data)

	var debug *log.Logger
	if a.settings.Debug {
		debug = log.New(a.log.Writer(), a.log.Prefix()+filepath.Base(path)+": ", 0)
	}
	rw := reorder.New(reorder.Options{
		Mode:             a.settings.Mode,
		Marker:           a.settings.TargetMarker,
		Config:           a.profile.MachineConfig(),
		DeferredCommands: a.settings.DeferredCommands,
		Logger:           debug,
	})

	blocks, report, rewriteErr := rw.Rewrite(gcode.SplitPlate(original))
	report.Source = path
	report.Profile = a.profile.Name

	out := a.outputPath(path)
	if rewriteErr != nil {
		if !a.opts.InPlace {
			if err := writeGCode(out, original); err != nil {
				return fmt.Errorf("%w (writing original also failed: %v)", rewriteErr, err)
			}
			a.log.Printf("%s: wrote original gcode unchanged to %s", path, out)
		}
		return rewriteErr
	}

	if a.opts.InPlace {
		backup, err := project.BackupOriginal(path, report, a.settings)
		if err != nil {
			return err
		}
		a.debugf("%s: original kept as %s (backup %s)", path, project.BackupPath(path), backup.BackupID)
	}
	if err := writeGCode(out, gcode.JoinPlate(blocks)); err != nil {
		return err
	}
	a.log.Printf("%s: rewrote %d of %d layers (%s) -> %s",
		path, report.RewrittenLayers(), len(report.Layers), report.Mode, out)
	if n := report.TotalWarnings(); n > 0 {
		a.log.Printf("%s: %d motion warnings, see --debug or the report", path, n)
	}

	return a.writeReports(path, report)
}

func (a *App) writeReports(path string, report model.Report) error {
	multi := len(a.opts.Files) > 1
	if a.opts.ReportPDF != "" {
		dest := reportPath(a.opts.ReportPDF, path, multi)
		if err := export.ExportPDF(dest, report, a.profile); err != nil {
			return fmt.Errorf("failed to write PDF report: %w", err)
		}
		a.debugf("report written to %s", dest)
	}
	if a.opts.ReportXLSX != "" {
		dest := reportPath(a.opts.ReportXLSX, path, multi)
		if err := export.ExportXLSX(dest, report, a.profile); err != nil {
			return fmt.Errorf("failed to write Excel report: %w", err)
		}
		a.debugf("report written to %s", dest)
	}
	return nil
}

func (a *App) restoreAll() int {
	code := ExitOK
	for _, path := range a.opts.Files {
		if err := project.RestoreBackup(path); err != nil {
			a.log.Print(err)
			code = ExitFailed
			continue
		}
		a.log.Printf("%s: original restored", path)
	}
	return code
}

func (a *App) debugf(format string, args ...interface{}) {
	if a.settings.Debug {
		a.log.Printf(format, args...)
	}
}

// ─── Paths ─────────────────────────────────────────────────

func (a *App) outputPath(path string) string {
	switch {
	case a.opts.InPlace:
		return path
	case a.opts.Output != "":
		return a.opts.Output
	default:
		return DefaultOutputPath(path)
	}
}

// DefaultOutputPath returns <name>_spoons<ext> next to path.
func DefaultOutputPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_spoons" + ext
}

// reportPath returns dest, or with several inputs dest with the input's
// name inserted before the extension.
func reportPath(dest, input string, multi bool) string {
	if !multi {
		return dest
	}
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	ext := filepath.Ext(dest)
	return strings.TrimSuffix(dest, ext) + "_" + stem + ext
}

func writeGCode(path, code string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(code), 0644)
}
