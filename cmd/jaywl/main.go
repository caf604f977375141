// Command jaywl is the compositor's entry point: it wires the event
// loop, the async task engine, the CpuWorker pool, and the Compositor
// Coordinator together, opens the client listening socket, and runs
// until signaled to stop (spec.md §4.9, §5, §6).
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sys/unix"

	"jaywl/internal/async"
	"jaywl/internal/compositor"
	"jaywl/internal/cpuworker"
	"jaywl/internal/loop"
	"jaywl/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("jaywl: %v", err)
	}
}

func run() error {
	l, err := loop.New()
	if err != nil {
		return fmt.Errorf("opening event loop: %w", err)
	}
	defer l.Close()

	// Reserve the two highest loop.IDs for the engine and the pool:
	// fd-backed registrations use the fd number as their id, so these
	// never collide with them. internal/async and internal/cpuworker
	// each register themselves under one fixed id.
	const (
		asyncEngineID loop.ID = 1<<64 - 1
		cpuPoolID     loop.ID = 1<<64 - 2
	)

	engine, err := async.New(l, asyncEngineID)
	if err != nil {
		return fmt.Errorf("starting async engine: %w", err)
	}
	_ = engine // the proto/surface layers spawn tasks on this engine; wiring them is per-protocol-object

	pool, err := cpuworker.New(l, cpuPoolID, 4)
	if err != nil {
		return fmt.Errorf("starting cpu worker pool: %w", err)
	}
	defer pool.Close()

	coord := compositor.New(l)
	coord.RegisterCoreGlobals()

	sockPath, closeSock, err := listenMainSocket()
	if err != nil {
		return fmt.Errorf("opening client socket: %w", err)
	}
	defer closeSock()

	fd, err := bindListen(sockPath)
	if err != nil {
		return fmt.Errorf("binding %s: %w", sockPath, err)
	}
	if err := coord.Listen(fd, proto.Caps(^uint32(0)), -1); err != nil {
		return fmt.Errorf("registering listener: %w", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		l.Stop()
	}()

	log.Printf("jaywl: listening on %s", sockPath)
	return l.Run()
}

// listenMainSocket resolves the Wayland display socket path under
// $XDG_RUNTIME_DIR, per spec.md §6: "A listening stream socket at a
// path under the user's runtime directory." It returns an error when
// XDG_RUNTIME_DIR is unset rather than guessing a fallback
// directory, since writing a socket outside the runtime dir would miss
// the permission and lifecycle guarantees that directory provides.
func listenMainSocket() (path string, cleanup func(), err error) {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		return "", nil, fmt.Errorf("XDG_RUNTIME_DIR is not set")
	}
	name := os.Getenv("WAYLAND_DISPLAY")
	if name == "" {
		name = "wayland-0"
	}
	p := filepath.Join(dir, name)
	return p, func() { os.Remove(p) }, nil
}

// bindListen creates, binds, and listens on a Unix stream socket at
// path, matching the raw-fd style internal/transport.Conn expects
// (spec.md §4.3, §6).
func bindListen(path string) (int, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return -1, err
	}
	os.Remove(path) // a stale socket from a crashed prior run must not block bind
	addr := &unix.SockaddrUnix{Name: path}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.Listen(fd, 16); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}
