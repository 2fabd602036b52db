// Package client supervises the Spelunky 99 companion client.
//
// # Overview
//
// A Supervisor launches the client executable with the spelunky.fyi API
// token injected through the environment and returns a Session. The
// Session's Run loop relays every line the client prints to a Sink and
// enforces cooperative shutdown:
//
//	sup := client.New(client.NewLogSink(logger.WithComponent("client")))
//	sess, err := sup.Start(ctx, path, token)
//	if err != nil {
//	    return err // *client.LaunchError
//	}
//	go sess.Run()
//	...
//	sess.RequestStop()
//	<-sess.Done()
//
// # Lifecycle
//
// A Session moves through NotStarted, Running, Stopping and Exited. Only
// Run mutates the state. RequestStop sets a flag that Run observes within
// one wait cycle (100ms by default); Run then kills the process exactly once
// and keeps draining both output streams until they reach end-of-stream.
//
// # Output
//
// Standard output lines are forwarded at info severity and standard error
// lines at warning severity. Lines from one stream keep their order; the
// interleaving of the two streams is best-effort.
package client
