package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"remindme/internal/config"
	"remindme/internal/ipc"
	"remindme/internal/journal"
	"remindme/internal/metrics"
	"remindme/internal/notify"
	"remindme/internal/scheduler"
	"remindme/internal/store"
	"remindme/internal/store/rest"

	sqlitejournal "remindme/internal/journal/sqlite"
)

type App struct {
	cfg        *config.Config
	store      store.Store
	jrnl       journal.Journal
	dispatcher *notify.ConsoleDispatcher
	sched      *scheduler.Scheduler
	mtr        *metrics.Metrics
	metricsSrv *http.Server

	// --- Socket Handling ---
	socketPath string
	listener   *net.UnixListener

	startedAt time.Time

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewApp(cfg *config.Config) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		cfg:        cfg,
		socketPath: ipc.SocketPath,
		ctx:        ctx,
		cancel:     cancel,
	}

	// Initialize the alert journal
	a.jrnl = sqlitejournal.NewSQLiteJournal(cfg.JournalPath)
	if err := a.jrnl.Init(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize journal: %w", err)
	}

	// Reminder store client (the back-office REST API)
	a.store = rest.NewClient(cfg.API.BaseURL, cfg.API.Token, cfg.APITimeout())

	// Alert dispatcher; the bell is optional
	var sounder notify.Sounder
	if cfg.SoundEnabled {
		sounder = notify.BellSounder{}
	}
	a.dispatcher = notify.NewConsoleDispatcher(sounder)

	a.mtr = metrics.New()

	a.sched = scheduler.New(a.store, a.dispatcher, scheduler.Options{
		Interval:     cfg.PollInterval(),
		AlertDisplay: cfg.AlertDisplay(),
		Location:     cfg.Location(),
		Journal:      a.jrnl,
		Metrics:      a.mtr,
	})

	return a, nil
}

// setupSocket checks for an existing socket and creates the listener.
func (a *App) setupSocket() error {
	if _, err := os.Stat(a.socketPath); err == nil {
		// Socket file exists, try to connect
		conn, err := net.DialTimeout("unix", a.socketPath, 1*time.Second)
		if err == nil {
			conn.Close()
			return fmt.Errorf("socket %s already active, another instance might be running", a.socketPath)
		}
		// Connection failed - socket file is stale, remove it
		log.Printf("Stale socket file found at %s, removing.", a.socketPath)
		if err := os.Remove(a.socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket file %s: %w", a.socketPath, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("error checking socket file %s: %w", a.socketPath, err)
	}

	addr, err := net.ResolveUnixAddr("unix", a.socketPath)
	if err != nil {
		return fmt.Errorf("failed to resolve unix addr %s: %w", a.socketPath, err)
	}

	listener, err := net.ListenUnix("unix", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on socket %s: %w", a.socketPath, err)
	}

	a.listener = listener
	log.Printf("Listening for commands on %s", a.socketPath)
	return nil
}

// listenForCommands accepts connections and handles them.
func (a *App) listenForCommands() {
	defer a.wg.Done()
	defer log.Println("Socket command listener stopped.")

	for {
		conn, err := a.listener.AcceptUnix()
		if err != nil {
			select {
			case <-a.ctx.Done():
				return // Expected error on shutdown
			default:
				log.Printf("Failed to accept connection: %v", err)
				if ne, ok := err.(net.Error); ok && !ne.Temporary() {
					log.Printf("Non-temporary accept error, stopping listener.")
					return
				}
				time.Sleep(100 * time.Millisecond)
			}
			continue
		}
		a.wg.Add(1)
		go a.handleConnection(conn)
	}
}

// handleConnection reads a command, processes it, and sends the response.
func (a *App) handleConnection(conn *net.UnixConn) {
	defer conn.Close()
	defer a.wg.Done()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	var cmd ipc.Command
	if err := decoder.Decode(&cmd); err != nil {
		if err != io.EOF {
			log.Printf("Failed to decode command: %v", err)
		}
		_ = encoder.Encode(ipc.Response{Success: false, Message: "Failed to decode command: " + err.Error()})
		return
	}

	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	log.Printf("Received command: %s", cmd.Name)
	response := a.processCommand(cmd)

	if err := encoder.Encode(response); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// processCommand routes the command to the correct handler.
func (a *App) processCommand(cmd ipc.Command) ipc.Response {
	switch cmd.Name {
	case ipc.CmdPing:
		return ipc.Response{Success: true, Message: "pong"}

	case ipc.CmdStatus:
		status := a.sched.Status()
		now := time.Now()
		data := ipc.StatusData{
			UptimeSecs:   now.Sub(a.startedAt).Seconds(),
			LastTick:     status.LastTick,
			TickCount:    status.TickCount,
			FetchErrors:  status.FetchErrors,
			Reminders:    status.Reminders,
			Pending:      status.Pending,
			NextDue:      status.NextDue,
			ActiveAlerts: a.dispatcher.Active(now),
		}
		return ipc.Response{Success: true, Data: data}

	case ipc.CmdHistory:
		var args ipc.HistoryArgs
		if err := mapToStruct(cmd.Args, &args); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Invalid args for %s: %v", cmd.Name, err)}
		}
		if args.Limit <= 0 {
			args.Limit = 20
		}
		kinds := make([]journal.Kind, 0, len(args.Kinds))
		for _, k := range args.Kinds {
			kinds = append(kinds, journal.Kind(k))
		}
		ctx, cancelFn := context.WithTimeout(a.ctx, 5*time.Second)
		defer cancelFn()
		entries, err := a.jrnl.Recent(ctx, args.Limit, kinds...)
		if err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Failed to read journal: %v", err)}
		}
		return ipc.Response{Success: true, Data: entries}

	case ipc.CmdComplete:
		var args ipc.CompleteArgs
		if err := mapToStruct(cmd.Args, &args); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Invalid args for %s: %v", cmd.Name, err)}
		}
		if args.ReminderID == "" {
			return ipc.Response{Success: false, Message: "Reminder id cannot be empty"}
		}
		ctx, cancelFn := context.WithTimeout(a.ctx, 10*time.Second)
		defer cancelFn()
		if err := a.store.SetCompleted(ctx, args.ReminderID, true); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Failed to complete reminder: %v", err)}
		}
		// The scheduler picks up the change on its next fetch; the active
		// alert, if any, can go away right now.
		a.dispatcher.Dismiss(notify.AlertID(args.ReminderID))
		return ipc.Response{Success: true, Message: fmt.Sprintf("Reminder %s marked completed", args.ReminderID)}

	default:
		return ipc.Response{Success: false, Message: fmt.Sprintf("Unknown command: %s", cmd.Name)}
	}
}

// Helper to convert map[string]interface{} (from json unmarshal) to a struct.
func mapToStruct(input interface{}, output interface{}) error {
	if input == nil {
		return nil
	}
	jsonBytes, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal args map: %w", err)
	}
	if err := json.Unmarshal(jsonBytes, output); err != nil {
		return fmt.Errorf("failed to unmarshal args into struct: %w", err)
	}
	return nil
}

func (a *App) Run() error {
	defer a.cleanup()

	log.Println("Starting remindme daemon...")
	log.Printf("Reminder store: %s", a.cfg.API.BaseURL)
	log.Printf("Polling every %s, alerts display for %s", a.cfg.PollInterval(), a.cfg.AlertDisplay())

	if err := a.setupSocket(); err != nil {
		return err
	}

	a.handleSignals()
	a.startedAt = time.Now()

	if a.cfg.MetricsAddr != "" {
		a.metricsSrv = a.mtr.Serve(a.cfg.MetricsAddr)
	}

	a.sched.Start(a.ctx)

	a.wg.Add(1)
	go a.listenForCommands()

	if _, err := a.jrnl.Record(a.ctx, journal.Entry{Timestamp: a.startedAt, Kind: journal.KindDaemonStart}); err != nil {
		log.Printf("Warning: failed to record daemon start: %v", err)
	}

	log.Println("remindme daemon running. Send commands via remindme-cli or the socket.")
	<-a.ctx.Done()

	log.Println("Shutdown signal received, waiting for components...")

	// Close the listener before waiting so Accept returns.
	if a.listener != nil {
		if err := a.listener.Close(); err != nil {
			log.Printf("Error closing socket listener: %v", err)
		}
	}

	waitChan := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(waitChan)
	}()

	select {
	case <-waitChan:
		log.Println("All daemon goroutines finished.")
	case <-time.After(5 * time.Second):
		log.Println("Warning: Timeout waiting for daemon goroutines to stop.")
	}

	log.Println("remindme daemon finished.")
	return nil
}

func (a *App) handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v. Initiating shutdown...", sig)
		a.cancel()
	}()
}

func (a *App) cleanup() {
	log.Println("Running cleanup...")

	// Stop the poller first so no tick runs against closing components.
	a.sched.Stop()

	saveCtx, saveCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer saveCancel()
	if _, err := a.jrnl.Record(saveCtx, journal.Entry{Timestamp: time.Now(), Kind: journal.KindDaemonStop}); err != nil {
		log.Printf("Warning: failed to record daemon stop: %v", err)
	}

	if a.metricsSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer shutdownCancel()
		if err := a.metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down metrics server: %v", err)
		}
	}

	if err := a.jrnl.Close(); err != nil {
		log.Printf("Error closing journal: %v", err)
	}

	if _, err := os.Stat(a.socketPath); err == nil {
		log.Printf("Removing socket file: %s", a.socketPath)
		if err := os.Remove(a.socketPath); err != nil {
			log.Printf("Warning: Failed to remove socket file %s: %v", a.socketPath, err)
		}
	}

	log.Println("Cleanup finished.")
}
