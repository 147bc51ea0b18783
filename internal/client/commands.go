// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/models"
)

var ErrNoActionGiven = errors.New("either --file or --type with --payload is required")

const offlineAnnotation = "offline"

// cli holds what the subcommands share: the options collected from the
// persistent flags and the App built from them before each command.
type cli struct {
	build AppBuilder
	info  models.AppBuildInfo
	opts  config.ClientOptions
	app   *App
}

// NewRootCommand returns the client command tree. build is called once per
// invocation, after flags are parsed.
func NewRootCommand(build AppBuilder, info models.AppBuildInfo) *cobra.Command {
	c := &cli{build: build, info: info}

	root := &cobra.Command{
		Use:           "offline-sync",
		Short:         "Offline-first action queue of this device",
		Version:       info.BuildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !needsApp(cmd) {
				return nil
			}
			app, err := c.build(cmd.Context(), c.opts)
			if err != nil {
				return err
			}
			c.app = app
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.opts.ConfigPath, "config", "c", "", "path to a JSON config file")
	flags.StringVar(&c.opts.DataDir, "data-dir", "", "directory of the local database and device identity")
	flags.StringVarP(&c.opts.ServerAddress, "server", "a", "", "server HTTP address")
	flags.StringVar(&c.opts.GRPCAddress, "grpc-server", "", "server gRPC address")
	flags.StringVar(&c.opts.Transport, "transport", "", "transport for server calls: http or grpc")
	flags.StringVarP(&c.opts.UserID, "user", "u", "", "owner id stamped on new actions")
	flags.StringVarP(&c.opts.HashKey, "hash-key", "k", "", "key of the batch integrity hash")

	root.AddCommand(
		c.versionCommand(),
		c.registerCommand(),
		c.enqueueCommand(),
		c.proofCommand(),
		c.proofsCommand(),
		c.pendingCommand(),
		c.failedCommand(),
		c.retryCommand(),
		c.syncCommand(),
		c.conflictsCommand(),
		c.resolveCommand(),
		c.purgeCommand(),
		c.statusCommand(),
		c.runCommand(),
	)
	return root
}

// needsApp reports whether cmd works on the local queue. Help, completion
// and version run without opening it.
func needsApp(cmd *cobra.Command) bool {
	for ; cmd != nil; cmd = cmd.Parent() {
		if cmd.Annotations[offlineAnnotation] == "true" {
			return false
		}
		switch cmd.Name() {
		case "help", "completion":
			return false
		}
	}
	return true
}

func (c *cli) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print build information",
		Annotations: map[string]string{offlineAnnotation: "true"},
		Args:        cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			v := c.info.VersionInfo()
			renderPairs(cmd.OutOrStdout(), [][2]string{
				{"version", v.Version},
				{"date", v.Date},
				{"commit", v.Commit},
			})
		},
	}
}

func (c *cli) registerCommand() *cobra.Command {
	var capabilities []string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register this device with the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := c.app.services.Device.Register(cmd.Context(), capabilities)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "device %s registered for user %s (checkpoint %d)\n",
				state.DeviceID, state.UserID, state.LastSyncCheckpoint.Version)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&capabilities, "capability", nil, "capability advertised to the server (repeatable)")
	return cmd
}

func (c *cli) enqueueCommand() *cobra.Command {
	var (
		file      string
		entry     batchEntry
		payload   string
		dependsOn []string
	)

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Record actions in the local queue",
		Example: `  offline-sync enqueue --type update_profile --payload '{"profile_id":"p1","fields":{"name":"Ann"}}'
  offline-sync enqueue --file actions.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var entries []batchEntry
			switch {
			case file != "":
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				if entries, err = parseBatch(f); err != nil {
					return err
				}
			case entry.Type != "" && payload != "":
				if err := json.Unmarshal([]byte(payload), &entry.Payload); err != nil {
					return fmt.Errorf("invalid --payload: %w", err)
				}
				entry.DependsOn = dependsOn
				entries = []batchEntry{entry}
			default:
				return ErrNoActionGiven
			}

			app := c.app
			enqueued, err := enqueueBatch(cmd.Context(), app.services.Actions, app.services.DeviceID, app.cfg.Device.UserID, entries)
			for _, a := range enqueued {
				fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s %s\n", a.Type, a.ID)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with a list of actions")
	cmd.Flags().StringVarP(&entry.Type, "type", "t", "", "action type")
	cmd.Flags().StringVarP(&payload, "payload", "p", "", "action payload as JSON")
	cmd.Flags().StringVar(&entry.Priority, "priority", "", "low, medium, high or critical")
	cmd.Flags().IntVar(&entry.MaxRetries, "max-retries", 0, "retry budget, 0 uses the configured default")
	cmd.Flags().StringSliceVar(&dependsOn, "depends-on", nil, "id of an action that must sync first (repeatable)")
	return cmd
}

func (c *cli) proofCommand() *cobra.Command {
	var (
		req       models.BuildProofRequest
		inputs    map[string]string
		priority  string
		dependsOn []string
	)

	build := &cobra.Command{
		Use:   "build",
		Short: "Build an offline proof and queue it for sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := parsePriority(priority)
			if err != nil {
				return err
			}
			req.Priority = p
			req.Dependencies = dependsOn
			req.Inputs = make(map[string]any, len(inputs))
			for k, v := range inputs {
				req.Inputs[k] = v
			}

			proof, action, err := c.app.services.Proofs.Build(cmd.Context(), req)
			if err != nil {
				return err
			}
			renderPairs(cmd.OutOrStdout(), [][2]string{
				{"proof", proof.ID},
				{"action", action.ID},
				{"digest", proof.InputDigest},
				{"expires", proof.ExpiresAt.Local().Format(time.DateTime)},
			})
			return nil
		},
	}
	build.Flags().StringVarP(&req.ProofType, "type", "t", "", "proof type")
	build.Flags().StringToStringVarP(&inputs, "input", "i", nil, "proof input as key=value (repeatable)")
	build.Flags().DurationVar(&req.Validity, "validity", 0, "proof lifetime, 0 uses the configured default")
	build.Flags().StringVar(&priority, "priority", "", "low, medium, high or critical")
	build.Flags().StringSliceVar(&dependsOn, "depends-on", nil, "id of an action that must sync first (repeatable)")

	cmd := &cobra.Command{
		Use:   "proof",
		Short: "Offline proofs",
	}
	cmd.AddCommand(build)
	return cmd
}

func (c *cli) proofsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "proofs",
		Short: "List unexpired proofs that are not synced yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			proofs, err := c.app.services.Proofs.ListActive(cmd.Context(), c.app.services.DeviceID)
			if err != nil {
				return err
			}
			renderProofs(cmd.OutOrStdout(), proofs, time.Now())
			return nil
		},
	}
}

func (c *cli) pendingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List queued actions that are not settled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			actions, err := c.app.services.Actions.ListPending(cmd.Context(), c.app.services.DeviceID)
			if err != nil {
				return err
			}
			renderActions(cmd.OutOrStdout(), actions)
			return nil
		},
	}
}

func (c *cli) failedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "failed",
		Short: "List actions that failed permanently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			actions, err := c.app.services.Actions.ListByStatus(cmd.Context(), c.app.services.DeviceID, models.StatusFailed)
			if err != nil {
				return err
			}
			renderActions(cmd.OutOrStdout(), actions)
			return nil
		},
	}
}

func (c *cli) retryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "retry ACTION_ID...",
		Short: "Move failed actions back to the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var errs []error
			for _, id := range args {
				action, err := c.app.services.Actions.Requeue(cmd.Context(), id)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", id, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "requeued %s\n", action.ID)
			}
			return errors.Join(errs...)
		},
	}
}

func (c *cli) syncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := c.app.SyncNow(cmd.Context())
			if err != nil {
				return err
			}
			renderReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func (c *cli) conflictsCommand() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "List open conflicts of this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list := c.app.services.Conflicts.List
			if refresh {
				list = c.app.services.Conflicts.Refresh
			}
			conflicts, err := list(cmd.Context())
			if err != nil {
				return err
			}
			renderConflicts(cmd.OutOrStdout(), conflicts)
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "pull open conflicts from the server first")
	return cmd
}

func (c *cli) resolveCommand() *cobra.Command {
	var (
		strategy string
		data     string
		dataFile string
	)

	cmd := &cobra.Command{
		Use:   "resolve CONFLICT_ID",
		Short: "Resolve a conflict with a strategy",
		Example: `  offline-sync resolve 01J... --strategy merge
  offline-sync resolve 01J... --strategy manual --data '{"name":"Ann","city":"Riga"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := models.ResolveConflictRequest{
				ConflictID: args[0],
				Strategy:   models.ResolutionStrategy(strings.ToLower(strategy)),
			}
			merged, err := readSnapshot(data, dataFile)
			if err != nil {
				return err
			}
			req.MergedData = merged

			resp, err := c.app.services.Conflicts.Resolve(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !resp.Resolved {
				fmt.Fprintf(out, "conflict %s stays open, resolve it with --strategy manual and --data\n", resp.ConflictID)
				return nil
			}
			fmt.Fprintf(out, "conflict %s resolved with %s, %s is now at version %d\n",
				resp.ConflictID, resp.Strategy, resp.ResourceKey, resp.NewVersion)
			if len(resp.ReleasedActionIDs) > 0 {
				fmt.Fprintf(out, "released: %s\n", strings.Join(resp.ReleasedActionIDs, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&strategy, "strategy", "s", string(models.StrategyServerWins), "server_wins, client_wins, merge or manual")
	cmd.Flags().StringVar(&data, "data", "", "resolved snapshot as JSON, for manual")
	cmd.Flags().StringVar(&dataFile, "data-file", "", "YAML or JSON file with the resolved snapshot, for manual")
	cmd.MarkFlagsMutuallyExclusive("data", "data-file")
	return cmd
}

// readSnapshot decodes the inline JSON or the file (YAML being a superset
// of JSON). Both empty yields nil.
func readSnapshot(inline, path string) (models.Snapshot, error) {
	var raw []byte
	switch {
	case inline != "":
		raw = []byte(inline)
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		raw = b
	default:
		return nil, nil
	}

	var snapshot models.Snapshot
	if err := yaml.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("invalid resolved data: %w", err)
	}
	return snapshot.Normalize()
}

func (c *cli) purgeCommand() *cobra.Command {
	var retention time.Duration

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete synced actions older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if retention <= 0 {
				retention = c.app.cfg.Workers.PurgeRetention
			}
			purged, err := c.app.services.Actions.PurgeSynced(cmd.Context(), c.app.services.DeviceID, retention)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d synced actions\n", purged)
			return nil
		},
	}
	cmd.Flags().DurationVar(&retention, "retention", 0, "keep actions synced within this window, 0 uses the configured default")
	return cmd
}

func (c *cli) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show device, network and sync state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			services := c.app.services

			state, err := services.Device.State(ctx)
			if err != nil {
				return err
			}
			network, latency := services.Monitor.Status()
			counters := services.Coordinator.Counters()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("device"))
			renderPairs(out, [][2]string{
				{"id", state.DeviceID},
				{"user", state.UserID},
				{"checkpoint", fmt.Sprintf("%d", state.LastSyncCheckpoint.Version)},
				{"pending", fmt.Sprintf("%d", len(state.PendingActionIDs))},
				{"network", fmt.Sprintf("%s (%s)", network, latency.Round(time.Millisecond))},
				{"sync", string(services.Coordinator.Status())},
				{"client", c.info.BuildVersion()},
			})
			fmt.Fprintln(out, titleStyle.Render("counters"))
			renderPairs(out, [][2]string{
				{"passes", fmt.Sprintf("%d", counters.Passes)},
				{"attempts", fmt.Sprintf("%d", counters.Attempts)},
				{"applied", fmt.Sprintf("%d", counters.Applied)},
				{"duplicates", fmt.Sprintf("%d", counters.Duplicates)},
				{"conflicts", fmt.Sprintf("%d", counters.Conflicts)},
				{"rejected", fmt.Sprintf("%d", counters.Rejected)},
				{"transient errors", fmt.Sprintf("%d", counters.TransientErrors)},
				{"terminal failures", fmt.Sprintf("%d", counters.TerminalFailures)},
			})
			return nil
		},
	}
}

func (c *cli) runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Keep syncing in the foreground until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "device %s syncing, press Ctrl+C to stop\n", c.app.services.DeviceID)
			return c.app.Run(cmd.Context())
		},
	}
}
