package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jguan/pipelayer/pkg/config"
	"github.com/jguan/pipelayer/pkg/datapipeline"
	"github.com/jguan/pipelayer/pkg/definition"
	"github.com/jguan/pipelayer/pkg/deploy"
	"github.com/jguan/pipelayer/pkg/infra/blob"
	"github.com/jguan/pipelayer/pkg/infra/journal"
	"github.com/jguan/pipelayer/pkg/infra/logger"
)

var (
	cliVersion   = "dev"
	cliBuildDate = "unknown"
	cliGitCommit = "unknown"
)

type RootCommand struct {
	cmd       *cobra.Command
	cfg       *config.Config
	client    datapipeline.Client
	uploader  blob.Uploader
	opts      *OutputOptions
	formatStr string
	template  string
}

func NewRootCommand() *RootCommand {
	root := &RootCommand{
		opts: NewOutputOptions(),
	}

	cmd := &cobra.Command{
		Use:   "pipelayer",
		Short: "Pipelayer - deploy scheduled pipeline definitions",
		Long: `Pipelayer deploys versioned pipeline definitions to a remote
workflow-orchestration service.

A deployment takes a shared definition template plus one directory per
pipeline instance (values.json and task files), uploads the task files
to object storage, validates every instance remotely, and activates
them all only when every one passed validation.`,
		SilenceUsage:      true,
		PersistentPreRunE: root.persistentPreRunE,
	}

	pflags := cmd.PersistentFlags()

	pflags.StringVarP(&root.formatStr, "output", "o", "table", "Output format (table, json, yaml)")
	pflags.BoolVarP(&root.opts.Quiet, "quiet", "q", false, "Suppress output")
	pflags.String("config", "", "Config file path (default: built-in defaults)")
	pflags.StringVarP(&root.template, "template", "t", "", "Definition template path (default from config)")

	viper.BindPFlag("output", pflags.Lookup("output"))
	viper.BindPFlag("quiet", pflags.Lookup("quiet"))
	viper.BindPFlag("config", pflags.Lookup("config"))

	root.cmd = cmd

	root.addSubCommands()

	return root
}

func (r *RootCommand) persistentPreRunE(cmd *cobra.Command, args []string) error {
	r.opts.Format = OutputFormat(r.formatStr)

	cfgPath := viper.GetString("config")
	var err error
	r.cfg, err = config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(logger.Config{
		Level:  r.cfg.Logging.Level,
		Format: r.cfg.Logging.Format,
		Output: os.Stderr,
	})

	if r.template == "" {
		r.template = r.cfg.Deploy.Template
	}

	r.client = datapipeline.NewHTTPClient(datapipeline.HTTPClientConfig{
		Endpoint: r.cfg.Remote.Endpoint,
		Timeout:  r.cfg.Remote.RequestTimeoutD,
	})

	for name, value := range changedFlags(cmd.Flags()) {
		logger.Debug("flag override", "flag", name, "value", value)
	}

	return nil
}

func changedFlags(flags *pflag.FlagSet) map[string]string {
	result := make(map[string]string)

	flags.Visit(func(f *pflag.Flag) {
		result[f.Name] = f.Value.String()
	})

	return result
}

func (r *RootCommand) addSubCommands() {
	r.cmd.AddCommand(NewVersionCommand(r))
	r.cmd.AddCommand(NewDeployCommand(r))
	r.cmd.AddCommand(NewValidateCommand(r))
	r.cmd.AddCommand(NewUploadCommand(r))
	r.cmd.AddCommand(NewHistoryCommand(r))
}

// newSet builds a pipeline set from the configured template, with the
// uploader and journal attached when their config sections allow it.
// The returned cleanup closes the journal.
func (r *RootCommand) newSet(reporter deploy.Reporter) (*deploy.Set, func(), error) {
	template, err := definition.LoadTemplate(r.template)
	if err != nil {
		return nil, nil, fmt.Errorf("load template %s: %w", r.template, err)
	}

	opts := []deploy.SetOption{deploy.WithReporter(reporter)}
	cleanup := func() {}

	if up, err := r.newUploader(); err != nil {
		return nil, nil, err
	} else if up != nil {
		opts = append(opts, deploy.WithUploader(up))
	}

	if r.cfg.Journal.Enabled {
		if err := os.MkdirAll(filepath.Dir(r.cfg.Journal.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create journal directory: %w", err)
		}
		store, err := journal.Open(r.cfg.Journal.Path)
		if err != nil {
			// A broken journal should not block a deployment.
			logger.Warn("journal unavailable, continuing without it", "error", err)
		} else {
			opts = append(opts, deploy.WithJournal(store))
			cleanup = func() { _ = store.Close() }
		}
	}

	return deploy.NewSet(template, r.client, opts...), cleanup, nil
}

// newUploader returns nil without error when no storage credentials
// are configured. A pre-set uploader wins, which lets tests inject a
// mock.
func (r *RootCommand) newUploader() (blob.Uploader, error) {
	if r.uploader != nil {
		return r.uploader, nil
	}
	if r.cfg.Storage.AccessKey == "" {
		return nil, nil
	}

	up, err := blob.NewMinioUploader(blob.Config{
		Endpoint:  r.cfg.Storage.Endpoint,
		AccessKey: r.cfg.Storage.AccessKey,
		SecretKey: r.cfg.Storage.SecretKey,
		Region:    r.cfg.Storage.Region,
		UseSSL:    r.cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create uploader: %w", err)
	}
	return up, nil
}

func (r *RootCommand) Command() *cobra.Command {
	return r.cmd
}

func (r *RootCommand) Config() *config.Config {
	return r.cfg
}

func (r *RootCommand) Client() datapipeline.Client {
	return r.client
}

func (r *RootCommand) OutputOptions() *OutputOptions {
	return r.opts
}

func (r *RootCommand) SetOutputWriter(w interface{ Write([]byte) (int, error) }) {
	r.opts.Writer = w
}

func (r *RootCommand) Execute() error {
	return r.cmd.Execute()
}

func (r *RootCommand) ExecuteContext(ctx context.Context) error {
	return r.cmd.ExecuteContext(ctx)
}

func Execute() {
	root := NewRootCommand()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := root.ExecuteContext(ctx); err != nil {
		PrintError(err, root.OutputOptions())
		os.Exit(1)
	}
}

func SetVersion(version, buildDate, gitCommit string) {
	cliVersion = version
	cliBuildDate = buildDate
	cliGitCommit = gitCommit
}

func GetVersion() string {
	return cliVersion
}

func GetBuildDate() string {
	return cliBuildDate
}

func GetGitCommit() string {
	return cliGitCommit
}
