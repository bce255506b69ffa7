package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"remindme/internal/ipc"
)

var rootCmd = &cobra.Command{
	Use:   "remindme-cli",
	Short: "CLI tool to interact with the remindme daemon",
	Long:  `A command-line interface to query and control the running remindme daemon via its Unix socket.`,
}

// --- Client Helper Function ---
func sendCommand(cmd ipc.Command) {
	conn, err := net.DialTimeout("unix", ipc.SocketPath, 2*time.Second)
	if err != nil {
		log.Fatalf("Error connecting to daemon socket (%s): %v\nIs the remindme daemon running?", ipc.SocketPath, err)
	}
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	encoder := json.NewEncoder(conn)
	decoder := json.NewDecoder(conn)

	if err := encoder.Encode(cmd); err != nil {
		log.Fatalf("Error sending command: %v", err)
	}

	var resp ipc.Response
	if err := decoder.Decode(&resp); err != nil {
		log.Fatalf("Error receiving response: %v", err)
	}

	if resp.Success {
		if resp.Message != "" {
			fmt.Println("Success:", resp.Message)
		}
		if resp.Data != nil {
			prettyData, err := json.MarshalIndent(resp.Data, "", "  ")
			if err == nil {
				fmt.Println(string(prettyData))
			} else {
				fmt.Println("Data (raw):", resp.Data)
			}
		}
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", resp.Message)
		os.Exit(1)
	}
}

// --- Command Definitions ---

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check if the remindme daemon is running",
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdPing})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the engine status (last pass, reminder counts, active alerts)",
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdStatus})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent engine events (alerts fired, auto-completions)",
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		kinds, _ := cmd.Flags().GetStringSlice("kind")

		sendCommand(ipc.Command{
			Name: ipc.CmdHistory,
			Args: ipc.HistoryArgs{Limit: limit, Kinds: kinds},
		})
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete <reminder-id>",
	Short: "Mark a reminder completed through the daemon",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{
			Name: ipc.CmdComplete,
			Args: ipc.CompleteArgs{ReminderID: args[0]},
		})
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of entries to show")
	historyCmd.Flags().StringSlice("kind", nil, "Filter by entry kind (e.g., alert_due_now, auto_complete)")

	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(completeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
