package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/erazemk/lostfound/internal/imaging"
	"github.com/erazemk/lostfound/internal/lifecycle"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/query"
)

var commands map[string]command

func init() {
	commands = map[string]command{
		"serve":    serveCommand,
		"register": {summary: "register a user", flags: registerFlags, run: runRegister},
		"login":    {summary: "sign in and store the session", flags: loginFlags, run: runLogin},
		"logout":   {summary: "sign out", run: runLogout},
		"whoami":   {summary: "show the signed in user", run: runWhoami},
		"report":   {summary: "report a lost or found item", flags: reportFlags, run: runReport},
		"claim":    {summary: "claim an active item", args: "<id>", run: transition((*lifecycle.Engine).Claim, "claimed")},
		"edit":     {summary: "edit an item's details", args: "<id>", flags: editFlags, run: runEdit},
		"verify":   {summary: "toggle verification of a claimed item", args: "<id>", run: transition((*lifecycle.Engine).ToggleVerification, "updated")},
		"delete":   {summary: "move an item to the bin", args: "<id>", run: transition((*lifecycle.Engine).Delete, "deleted")},
		"restore":  {summary: "restore an item from the bin", args: "<id>", run: transition((*lifecycle.Engine).Restore, "restored")},
		"purge":    {summary: "permanently delete a binned item", args: "<id>", run: transition((*lifecycle.Engine).Purge, "purged")},
		"history":  {summary: "show an item's transitions", args: "<id>", run: runHistory},
		"list":     {summary: "list items", flags: listFlags, run: runList},
		"counts":   {summary: "show partition sizes", run: runCounts},
		"users":    {summary: "list registered users", run: runUsers},
		"export":   {summary: "export items as CSV", flags: exportFlags, run: runExport},
		"sample":   {summary: "import the sample item", run: runSample},
		"clear":    {summary: "delete all data", run: runClear},
		"theme":    {summary: "show or set the theme", args: "[light|dark]", run: runTheme},
		"dump":     {summary: "write a compressed backup", flags: dumpFlags, run: runDump},
		"load":     {summary: "restore a backup", args: "<file>", run: runLoad},
	}
}

// oneArg returns the single positional argument.
func oneArg(fs *pflag.FlagSet, name string) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one argument: %s", name)
	}
	return fs.Arg(0), nil
}

func registerFlags(fs *pflag.FlagSet) {
	fs.StringP("username", "u", "", "username")
	fs.StringP("password", "p", "", "password (prompted when empty)")
	fs.String("name", "", "display name")
	fs.String("email", "", "email address")
	fs.String("role", model.RoleStudent, "role: student, staff or admin")
}

func runRegister(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	in := lifecycle.RegisterInput{}
	in.Username, _ = fs.GetString("username")
	in.Password, _ = fs.GetString("password")
	in.Name, _ = fs.GetString("name")
	in.Email, _ = fs.GetString("email")
	in.Role, _ = fs.GetString("role")

	if in.Password == "" {
		in.Password = a.prompt("Password: ")
	}

	u, err := a.engine.Register(ctx, in)
	if err := settle(err); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered %s (%s)\n", u.Username, u.Role)
	return nil
}

func loginFlags(fs *pflag.FlagSet) {
	fs.StringP("username", "u", "", "username")
	fs.StringP("password", "p", "", "password (prompted when empty)")
}

func runLogin(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	username, _ := fs.GetString("username")
	password, _ := fs.GetString("password")
	if username == "" {
		username = a.prompt("Username: ")
	}
	if password == "" {
		password = a.prompt("Password: ")
	}

	sess, err := a.engine.Login(ctx, username, password)
	if err := settle(err); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", sess.Username, sess.Role)
	return nil
}

func runLogout(ctx context.Context, a *app, _ *pflag.FlagSet) error {
	if err := settle(a.engine.Logout(ctx)); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func runWhoami(ctx context.Context, a *app, _ *pflag.FlagSet) error {
	sess := a.engine.Current(ctx)
	if sess == nil {
		fmt.Fprintln(a.out, model.Anonymous)
		return nil
	}
	fmt.Fprintf(a.out, "%s (%s)\n", sess.Username, sess.Role)
	return nil
}

func reportFlags(fs *pflag.FlagSet) {
	fs.StringP("type", "t", model.TypeLost, "lost or found")
	fs.String("title", "", "short title")
	fs.String("category", "", "category (default "+model.DefaultCategory+")")
	fs.String("location", "", "where it was lost or found (default "+model.DefaultLocation+")")
	fs.String("description", "", "description")
	fs.String("date", "", "date as YYYY-MM-DD (default today)")
	fs.String("image", "", "path to a JPEG or PNG photo")
}

func runReport(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	in := lifecycle.ReportInput{}
	in.Type, _ = fs.GetString("type")
	in.Title, _ = fs.GetString("title")
	in.Category, _ = fs.GetString("category")
	in.Location, _ = fs.GetString("location")
	in.Description, _ = fs.GetString("description")
	in.Date, _ = fs.GetString("date")

	if path, _ := fs.GetString("image"); path != "" {
		ref, err := a.storeImage(ctx, path)
		if err != nil {
			return err
		}
		in.ImageRef = ref
	}

	rec, err := a.engine.Report(ctx, in)
	if err := settle(err); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Reported %s\n", rec.ID)
	return nil
}

func (a *app) storeImage(ctx context.Context, path string) (string, error) {
	images, err := a.images(ctx)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()
	return imaging.Store(ctx, images, f)
}

// transition builds a command that applies one id-based engine operation.
func transition(op func(*lifecycle.Engine, context.Context, string) (model.Record, error), done string) func(context.Context, *app, *pflag.FlagSet) error {
	return func(ctx context.Context, a *app, fs *pflag.FlagSet) error {
		id, err := oneArg(fs, "<id>")
		if err != nil {
			return err
		}
		rec, err := op(a.engine, ctx, id)
		if err := settle(err); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s %s: %s\n", strings.ToUpper(done[:1])+done[1:], rec.ID, rec.Title)
		return nil
	}
}

func editFlags(fs *pflag.FlagSet) {
	fs.String("title", "", "new title")
	fs.String("category", "", "new category")
	fs.String("location", "", "new location")
	fs.String("description", "", "new description")
}

func runEdit(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	id, err := oneArg(fs, "<id>")
	if err != nil {
		return err
	}

	changed := func(name string) *string {
		if !fs.Changed(name) {
			return nil
		}
		v, _ := fs.GetString(name)
		return &v
	}
	patch := model.Patch{
		Title:       changed("title"),
		Category:    changed("category"),
		Location:    changed("location"),
		Description: changed("description"),
	}

	rec, err := a.engine.Edit(ctx, id, patch)
	if err := settle(err); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated %s: %s\n", rec.ID, rec.Title)
	return nil
}

func runHistory(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	id, err := oneArg(fs, "<id>")
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "AT\tOP\tFROM\tTO\tBY")
	for _, t := range a.engine.History(ctx, id) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.At.Format(time.DateTime), t.Op, dash(string(t.From)), dash(string(t.To)), t.Actor)
	}
	return tw.Flush()
}

func filterFlags(fs *pflag.FlagSet) {
	fs.String("type", "", "lost or found")
	fs.String("category", "", "category")
	fs.String("verified", query.VerifiedAll, "all, verified or unverified")
	fs.StringP("search", "q", "", "search title, description, location and category")
	fs.String("sort", query.SortNewest, "newest or oldest")
}

func filterFrom(fs *pflag.FlagSet) query.Filter {
	var f query.Filter
	f.Type, _ = fs.GetString("type")
	f.Category, _ = fs.GetString("category")
	f.Verified, _ = fs.GetString("verified")
	f.Search, _ = fs.GetString("search")
	f.Sort, _ = fs.GetString("sort")
	return f
}

func listFlags(fs *pflag.FlagSet) {
	fs.StringP("partition", "p", string(model.PartitionActive), "active, claimed or deleted")
	filterFlags(fs)
}

func runList(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	p, _ := fs.GetString("partition")
	records, err := a.engine.List(ctx, model.Partition(p), filterFrom(fs))
	if err != nil {
		return err
	}
	return printRecords(a.out, records)
}

func printRecords(w io.Writer, records []model.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tTITLE\tCATEGORY\tLOCATION\tDATE\tCLAIMED BY\tVERIFIED")
	for _, r := range records {
		verified := ""
		if r.Verified() {
			verified = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Type, r.Title, r.Category, r.Location, r.Date, dash(r.Claimant()), dash(verified))
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func runCounts(ctx context.Context, a *app, _ *pflag.FlagSet) error {
	counts := a.engine.Counts(ctx)
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, p := range []model.Partition{model.PartitionActive, model.PartitionClaimed, model.PartitionDeleted} {
		fmt.Fprintf(tw, "%s\t%d\n", p, counts[p])
	}
	return tw.Flush()
}

func runUsers(ctx context.Context, a *app, _ *pflag.FlagSet) error {
	users, err := a.engine.Users(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tROLE\tNAME\tEMAIL")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.Username, u.Role, dash(u.Name), u.Email)
	}
	return tw.Flush()
}

func exportFlags(fs *pflag.FlagSet) {
	fs.Bool("filtered", false, "export the filtered active list instead of everything")
	fs.StringP("out", "o", "", "output file (default lostfound_all.csv or lostfound_filtered.csv, - for stdout)")
	filterFlags(fs)
}

func runExport(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	filtered, _ := fs.GetBool("filtered")
	out, _ := fs.GetString("out")

	var data []byte
	var err error
	if filtered {
		data, err = a.engine.ExportFiltered(ctx, filterFrom(fs))
		if out == "" {
			out = "lostfound_filtered.csv"
		}
	} else {
		data, err = a.engine.ExportAll(ctx)
		if out == "" {
			out = "lostfound_all.csv"
		}
	}
	if err != nil {
		return err
	}

	if out == "-" {
		_, err := a.out.Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	fmt.Fprintf(a.out, "Exported to %s\n", out)
	return nil
}

func runSample(ctx context.Context, a *app, _ *pflag.FlagSet) error {
	rec, err := a.engine.ImportSample(ctx)
	if err := settle(err); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported sample %s\n", rec.ID)
	return nil
}

func runClear(ctx context.Context, a *app, _ *pflag.FlagSet) error {
	if err := settle(a.engine.ClearAll(ctx)); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "All data cleared")
	return nil
}

func runTheme(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	if fs.NArg() == 0 {
		fmt.Fprintln(a.out, a.engine.Theme(ctx))
		return nil
	}
	theme, err := oneArg(fs, "[light|dark]")
	if err != nil {
		return err
	}
	if err := settle(a.engine.SetTheme(ctx, theme)); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Theme set to %s\n", theme)
	return nil
}

func dumpFlags(fs *pflag.FlagSet) {
	fs.StringP("out", "o", "-", "output file, - for stdout")
}

func runDump(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	out, _ := fs.GetString("out")

	w := a.out
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating dump file: %w", err)
		}
		defer f.Close()
		w = f
	}

	d, err := a.engine.Dump(ctx, w)
	if err != nil {
		return err
	}
	if out != "-" {
		fmt.Fprintf(a.out, "Dumped %d keys to %s\n", len(d.Entries), out)
	}
	return nil
}

func runLoad(ctx context.Context, a *app, fs *pflag.FlagSet) error {
	path, err := oneArg(fs, "<file>")
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening dump: %w", err)
	}
	defer f.Close()

	d, err := a.engine.LoadDump(ctx, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Loaded %d keys: %s\n", len(d.Entries), strings.Join(d.Keys(), ", "))
	return nil
}

// prompt reads one line from stdin.
func (a *app) prompt(label string) string {
	fmt.Fprint(a.out, label)
	line, _ := a.in.ReadString('\n')
	return strings.TrimSpace(line)
}
