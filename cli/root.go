package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"chatline/chatapi"
	"chatline/config"
	"chatline/model"
	"chatline/storage"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	instance   string
	server     string
	configPath string

	version string
	license string
}

// NewRootCmd builds the chatline command tree. Running it without a
// subcommand opens the interactive chat.
func NewRootCmd(version, license string) *cobra.Command {
	opts := &globalOptions{version: version, license: license}

	rootCmd := &cobra.Command{
		Use:     "chatline",
		Short:   "Terminal client for a conversational chat service",
		Version: version,
		Long: `chatline talks to a chat service over HTTP and keeps each conversation
on disk, one per instance, so a conversation survives restarts.`,
		Example: `  # Open the interactive chat for the default instance
  $ chatline

  # Use a separate conversation against another server
  $ chatline --instance support --server http://localhost:9000

  # One-shot exchange from a script
  $ chatline send "What is the weather like?"

  # Start over
  $ chatline reset`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts)
		},
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate(fmt.Sprintf("chatline version %s (%s)\n", version, license))

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.instance, "instance", "i", "", "conversation instance (namespace for local state)")
	flags.StringVarP(&opts.server, "server", "s", "", "chat service base URL")
	flags.StringVarP(&opts.configPath, "config", "c", "", "settings file (default: "+config.GetSettingsFilePath()+")")

	rootCmd.AddCommand(
		newChatCmd(opts),
		newSendCmd(opts),
		newResetCmd(opts),
		newHistoryCmd(opts),
		newExportCmd(opts),
		newStatusCmd(opts),
	)

	return rootCmd
}

// Execute runs the command tree against os.Args.
func Execute(version, license string) error {
	return NewRootCmd(version, license).Execute()
}

// loadConfig reads settings, applies the persistent flags on top and
// starts debug logging.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	path := config.GetSettingsFilePath()
	if o.configPath != "" {
		path = config.ExpandPath(o.configPath)
	}

	cfg, err := config.LoadFrom(path, func(c *config.Config) {
		if o.instance != "" {
			c.Instance = o.instance
		}
		if o.server != "" {
			c.ServerURL = o.server
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	config.InitDebugLog(cfg.DataDir())
	return cfg, nil
}

// session bundles everything a command needs to drive one instance. The
// manager is nil until loadManager restores the conversation.
type session struct {
	cfg     *config.Config
	store   storage.StateStore
	client  *chatapi.Client
	manager *model.Manager
}

// openSession opens the store and the client. Commands that write the
// conversation restore it inside withInstanceLock; read-only commands use
// openRestoredSession.
func (o *globalOptions) openSession() (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.StorageBackend, cfg.DataDir())
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	client, err := chatapi.NewClient(cfg.ServerURL)
	if err != nil {
		store.Close()
		return nil, err
	}

	config.DebugLog.Debug().
		Str("instance", cfg.Instance).
		Str("server", client.BaseURL()).
		Str("backend", cfg.StorageBackend).
		Msg("session opened")

	return &session{cfg: cfg, store: store, client: client}, nil
}

func (o *globalOptions) openRestoredSession() (*session, error) {
	s, err := o.openSession()
	if err != nil {
		return nil, err
	}
	if err := s.loadManager(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// loadManager restores the instance's conversation from the store.
func (s *session) loadManager() error {
	manager, err := model.NewManager(model.OptionsFromConfig(s.cfg, s.store, s.client))
	if err != nil {
		return err
	}
	s.manager = manager
	return nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// withInstanceLock restores the conversation and runs fn while this process
// holds the instance lock, so two chatline processes never write the same
// namespace at once.
func (s *session) withInstanceLock(fn func() error) error {
	lock, err := storage.NewInstanceLock(s.cfg.DataDir(), s.cfg.Instance)
	if err != nil {
		return err
	}
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer s.releaseLock(lock)

	if err := s.loadManager(); err != nil {
		return err
	}
	return fn()
}

func (s *session) releaseLock(lock *storage.InstanceLock) {
	if err := lock.Release(); err != nil {
		config.DebugLog.Warn().Err(err).Str("instance", s.cfg.Instance).Msg("failed to release instance lock")
	}
}
