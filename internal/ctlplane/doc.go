// Package ctlplane serves the dispatch table over a Unix socket.
//
// The server registers itself with net/rpc. Operation failures travel in
// the reply as an error kind and message so the client can rebuild a
// kinded error; transport failures come back as plain RPC errors.
//
// RPC methods:
//
//	Server.Call            run one operation (typed args or string words)
//	Server.ListOperations  describe the dispatch table
//	Server.GetStatus       daemon status and the last watchdog sample
//	Server.RunPhase        run a configured phase
//	Server.GetOption       read a runtime option
//	Server.SetOption       apply "key=value"
//	Server.ListOptions     dump every runtime option
package ctlplane
