// bgpallowlistd watches a configuration database for BGP allow-list intent
// and reconciles it into an FRR routing engine's running configuration.
//
//	bgpallowlistd run --constants /etc/bgpallowlistd/constants.yml
//
// The daemon subscribes to CONFIG_DB table BGP_ALLOWED_PREFIXES for
// allow-list intent and, if constants.bgp.bbr.enabled, table BGP_BBR for
// the supplemental BBR allowas-in toggle. Each table feeds its own
// allowlist.TableHandler through its own event loop; events within one
// table are handled one at a time.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/newtron-network/bgp-allowlistd/internal/bbrgate"
	"github.com/newtron-network/bgp-allowlistd/internal/constants"
	"github.com/newtron-network/bgp-allowlistd/internal/metrics"
	"github.com/newtron-network/bgp-allowlistd/internal/statusserver"
	"github.com/newtron-network/bgp-allowlistd/pkg/allowlist"
	"github.com/newtron-network/bgp-allowlistd/pkg/configdb"
	"github.com/newtron-network/bgp-allowlistd/pkg/engine"
	"github.com/newtron-network/bgp-allowlistd/pkg/util"
)

var errEngineUnreachable = errors.New("routing engine unreachable")

const (
	allowListTable = "BGP_ALLOWED_PREFIXES"
	bbrTable       = "BGP_BBR"
)

type runFlags struct {
	constantsPath string
	redisAddr     string
	listenAddr    string
	logLevel      string
	jsonLogs      bool
	useSSH        bool
	sshHost       string
	sshUser       string
	sshPass       string
	sshPort       int
	bgpASN        string
	peerGroups    string
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "bgpallowlistd",
		Short:         "Reconciles BGP allow-list intent into FRR running configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newRunCmd())

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errEngineUnreachable) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the reconciliation daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVar(&f.constantsPath, "constants", "/etc/bgpallowlistd/constants.yml", "path to constants.yml")
	cmd.Flags().StringVar(&f.redisAddr, "redis-addr", "localhost:6379", "CONFIG_DB redis address")
	cmd.Flags().StringVar(&f.listenAddr, "listen", ":8080", "status/metrics HTTP listen address")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	cmd.Flags().BoolVar(&f.jsonLogs, "json-logs", false, "emit structured JSON logs")
	cmd.Flags().BoolVar(&f.useSSH, "ssh", false, "drive vtysh over SSH instead of locally (lab/test use)")
	cmd.Flags().StringVar(&f.sshHost, "ssh-host", "", "SSH host for --ssh")
	cmd.Flags().StringVar(&f.sshUser, "ssh-user", "admin", "SSH user for --ssh")
	cmd.Flags().StringVar(&f.sshPass, "ssh-pass", "", "SSH password for --ssh")
	cmd.Flags().IntVar(&f.sshPort, "ssh-port", 22, "SSH port for --ssh")
	cmd.Flags().StringVar(&f.bgpASN, "bgp-asn", "", "local router ASN, required when BBR is enabled")
	cmd.Flags().StringVar(&f.peerGroups, "peer-groups", "", "comma-separated peer-group names BBR toggles, required when BBR is enabled")

	return cmd
}

func runDaemon(ctx context.Context, f *runFlags) error {
	if err := util.SetLogLevel(f.logLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if f.jsonLogs {
		util.SetJSONFormat()
	}

	c, err := constants.Load(f.constantsPath)
	if err != nil {
		return fmt.Errorf("load constants: %w", err)
	}

	eng, cleanup, err := newEngine(f)
	if err != nil {
		return fmt.Errorf("%w: %v", errEngineUnreachable, err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	status := statusserver.New()
	httpServer := &http.Server{Addr: f.listenAddr, Handler: status.Handler()}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			util.WithField("error", err).Error("status server stopped")
		}
	}()

	view := allowlist.NewConfigView(eng)
	reconciler := allowlist.NewPolicyReconciler(view, allowlist.ConstantPrefixes{
		V4: c.BGP.AllowList.DefaultPLRules.V4,
		V6: c.BGP.AllowList.DefaultPLRules.V6,
	}, m)
	dispatcher := allowlist.NewEventDispatcher(reconciler, c)

	allowListDB := configdb.NewClient(f.redisAddr, allowListTable)
	if err := allowListDB.Connect(ctx); err != nil {
		return fmt.Errorf("connect config database: %w", err)
	}
	defer allowListDB.Close()

	handlers := map[*configdb.Client]allowlist.TableHandler{allowListDB: dispatcher}

	var bbrDB *configdb.Client
	if c.BBREnabled() {
		if f.bgpASN == "" {
			return fmt.Errorf("BBR is enabled in constants but --bgp-asn was not supplied")
		}
		if f.peerGroups == "" {
			return fmt.Errorf("BBR is enabled in constants but --peer-groups was not supplied")
		}
		bbrDB = configdb.NewClient(f.redisAddr, bbrTable)
		if err := bbrDB.Connect(ctx); err != nil {
			return fmt.Errorf("connect BBR config database: %w", err)
		}
		defer bbrDB.Close()

		gate := bbrgate.NewGate(allowlist.NewConfigView(eng), staticPeerGroups(f.peerGroups), f.bgpASN, true)
		handlers[bbrDB] = gate
	}

	status.MarkReady()
	util.Info("bgpallowlistd ready")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, len(handlers))
	for client, handler := range handlers {
		client, handler := client, handler
		go func() {
			errs <- watchTable(ctx, client, handler, status)
		}()
	}

	select {
	case <-ctx.Done():
		util.Info("shutting down")
	case err := <-errs:
		if err != nil && !errors.Is(err, context.Canceled) {
			util.WithField("error", err).Error("watch loop exited unexpectedly")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// watchTable runs one client's Watch loop, forwarding every delivered event
// to handler over a buffered channel sized 1 so the Redis subscriber
// goroutine and the reconciler stay decoupled but serialized.
func watchTable(ctx context.Context, client *configdb.Client, handler allowlist.TableHandler, status *statusserver.Server) error {
	type event struct {
		key      string
		data     map[string]string
		isDelete bool
	}
	events := make(chan event, 1)

	initial, err := client.GetAll(ctx)
	if err != nil {
		util.WithField("error", err).Warn("initial config database read failed, relying on notifications")
	}
	go func() {
		for key, data := range initial {
			events <- event{key: key, data: data, isDelete: false}
		}
		err := client.Watch(ctx, func(ctx context.Context, key string, data map[string]string, isDelete bool) {
			events <- event{key: key, data: data, isDelete: isDelete}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			util.WithField("error", err).Error("config database watch stopped")
		}
		close(events)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.isDelete {
				handler.HandleDel(ctx, ev.key)
			} else {
				handler.HandleSet(ctx, ev.key, ev.data)
			}
			status.RecordReconcile(time.Now())
		}
	}
}

func newEngine(f *runFlags) (allowlist.Engine, func(), error) {
	if !f.useSSH {
		return engine.NewLocalExecutor(), nil, nil
	}
	if f.sshHost == "" {
		return nil, nil, fmt.Errorf("--ssh-host is required with --ssh")
	}
	ssh, err := engine.NewSSHExecutor(f.sshHost, f.sshUser, f.sshPass, f.sshPort)
	if err != nil {
		return nil, nil, err
	}
	return ssh, func() { ssh.Close() }, nil
}

// staticPeerGroups implements bbrgate.PeerGroupSource from a flat
// comma-separated flag; a full deployment would instead source these from
// the engine's configured peer groups.
type staticPeerGroups string

func (s staticPeerGroups) PeerGroups() []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(string(s), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
