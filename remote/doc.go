// Package remote talks to a codex-monitor daemon.
//
// The daemon speaks line-delimited JSON-RPC 2.0 over TCP:
//
//	Router <--JSON-RPC/TCP--> codex_monitor_daemon <--> workspaces, files, settings
//
// A Client authenticates with the "auth" method when a token is configured
// and then forwards calls by method name. A transport failure drops the
// connection; IsConnected reports false until the next Connect.
//
// # Usage
//
//	client := remote.NewClient()
//	if err := client.Connect(ctx, "127.0.0.1:4732", token); err != nil {
//	    return err
//	}
//	defer client.Close()
//	raw, err := client.Call(ctx, "get_app_settings", nil)
//
// Daemon starts a daemon binary locally and waits until it accepts
// connections.
package remote
