// Package procbatch provides a memory-aware batch scheduler for external
// process jobs.
//
// Jobs declare how many CPU cores and how much memory they need; the
// scheduler admits them in first-fit order against a fixed cluster capacity,
// runs each as an operating-system process, samples the resident memory of
// every process tree while it runs and reports the observed peak alongside
// the exit status.
//
// Procbatch is designed to be embedded in host applications. End-users
// typically interact via the high-level Service façade exposed by the root
// package:
//
//	srv, _ := procbatch.New(8, "16G")
//	rt := srv.Runtime()
//	_ = rt.Add(procbatch.NewJob("ffmpeg", "-i", "in.avi", "out.mp4").Memory("2G"))
//	result, _ := rt.Drain(ctx)
//
// For more details see the README and individual sub-packages.
package procbatch
