// seed crea en bloque los items de una campaña en el documento remoto.
//
// Uso: go run ./cmd/seed --prefix B --from 1 --to 120 [--count 60] [--token ...]
//
// Lee la configuración del remoto igual que cmd/api (REMOTE_*), hace pull, crea los ids
// del rango que aún no existen y publica una sola vez. Con --dry-run solo lista lo que
// crearía. Con --init crea el documento vacío si el recurso no existe.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/jhoicas/boxtrack/internal/application/inventory"
	"github.com/jhoicas/boxtrack/internal/domain"
	"github.com/jhoicas/boxtrack/internal/domain/entity"
	"github.com/jhoicas/boxtrack/internal/infrastructure/docstore"
	"github.com/jhoicas/boxtrack/pkg/config"
	"github.com/jhoicas/boxtrack/pkg/credential"
	"github.com/jhoicas/boxtrack/pkg/logger"
)

type options struct {
	prefix    string
	from, to  int
	width     int
	count     int
	token     string
	saveToken bool
	dryRun    bool
	initDoc   bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flagSet.StringVar(&opts.prefix, "prefix", "", "prefijo de los ids (ej. B)")
	flagSet.IntVar(&opts.from, "from", 1, "primer número del rango")
	flagSet.IntVar(&opts.to, "to", 0, "último número del rango (incluido)")
	flagSet.IntVar(&opts.width, "width", 2, "dígitos mínimos, rellenados con ceros")
	flagSet.IntVar(&opts.count, "count", 0, "unidades por item (0 = DEFAULT_ITEM_COUNT)")
	flagSet.StringVar(&opts.token, "token", "", "credencial del remoto (por defecto REMOTE_TOKEN o la guardada)")
	flagSet.BoolVar(&opts.saveToken, "save-token", false, "guardar --token para próximas sesiones")
	flagSet.BoolVar(&opts.dryRun, "dry-run", false, "listar sin escribir")
	flagSet.BoolVar(&opts.initDoc, "init", false, "crear el documento vacío si no existe")
	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	if opts.to < opts.from {
		return options{}, fmt.Errorf("rango vacío: --from %d --to %d", opts.from, opts.to)
	}
	if opts.from < 0 || opts.width < 0 {
		return options{}, fmt.Errorf("--from y --width no pueden ser negativos")
	}
	if opts.saveToken && opts.token == "" {
		return options{}, fmt.Errorf("--save-token requiere --token")
	}
	return opts, nil
}

// itemIDs genera prefix+número con al menos width dígitos, de from a to.
func itemIDs(prefix string, from, to, width int) []string {
	ids := make([]string, 0, to-from+1)
	for n := from; n <= to; n++ {
		ids = append(ids, fmt.Sprintf("%s%0*d", prefix, width, n))
	}
	return ids
}

// seed crea en store los ids que no existen y devuelve los creados y los omitidos.
func seed(store *inventory.Store, ids []string, count int) (created, skipped []string, err error) {
	for _, id := range ids {
		err := store.Create(id, entity.NewItem(count))
		switch {
		case err == nil:
			created = append(created, id)
		case errors.Is(err, domain.ErrDuplicateID):
			skipped = append(skipped, id)
		default:
			return created, skipped, err
		}
	}
	return created, skipped, nil
}

func run(args []string, out io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Output: os.Stderr})

	creds, err := credential.New(cfg.App.CredentialsFile)
	if err != nil {
		return err
	}
	explicit := opts.token
	if explicit == "" {
		explicit = cfg.Remote.Token
	}
	token, err := creds.Resolve(explicit)
	if err != nil {
		return err
	}
	if opts.saveToken {
		if err := creds.Save(opts.token); err != nil {
			return err
		}
		log.Info().Str("path", creds.Path()).Msg("credencial guardada")
	}

	count := opts.count
	if count == 0 {
		count = cfg.App.DefaultItemCount
	}

	ctx, cancel := context.WithTimeout(context.Background(), 4*cfg.Remote.Timeout)
	defer cancel()

	backend, err := docstore.OpenBackend(ctx, cfg.Remote)
	if err != nil {
		return err
	}
	if closer, ok := backend.(interface{ Close() }); ok {
		defer closer.Close()
	}
	client := docstore.NewClient(backend)
	handle := entity.DocumentHandle{Resource: cfg.Remote.Resource, Token: token}
	store := inventory.NewStore(client,
		inventory.WithLogger(log.Component("seed")),
		inventory.WithStrictSync(true),
	)

	if opts.initDoc && !opts.dryRun {
		if _, err := client.Init(ctx, handle); err != nil && !errors.Is(err, domain.ErrVersionConflict) {
			return fmt.Errorf("init: %w", err)
		}
	}
	if err := store.Pull(ctx, handle); err != nil {
		return err
	}

	created, skipped, err := seed(store, itemIDs(opts.prefix, opts.from, opts.to, opts.width), count)
	if err != nil {
		return err
	}
	for _, id := range skipped {
		fmt.Fprintf(out, "= %s (ya existe)\n", id)
	}
	for _, id := range created {
		fmt.Fprintf(out, "+ %s (%d)\n", id, count)
	}
	if opts.dryRun || len(created) == 0 {
		fmt.Fprintf(out, "%d nuevos, %d existentes; sin cambios en el remoto\n", len(created), len(skipped))
		return nil
	}

	if err := store.Sync(docstore.WithOperator(ctx, "seed"), handle); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d nuevos, %d existentes; versión %s\n", len(created), len(skipped), store.Version())
	return nil
}
