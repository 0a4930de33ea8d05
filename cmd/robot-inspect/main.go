// Command robot-inspect loads a robot through the RobotLoader and prints the resulting
// node hierarchy. The robot path may be an http(s) URL or a local directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-robot/common"
	"github.com/Carmen-Shannon/oxy-robot/config"
	"github.com/Carmen-Shannon/oxy-robot/engine/loader"
	"github.com/Carmen-Shannon/oxy-robot/engine/node"
	"github.com/Carmen-Shannon/oxy-robot/engine/robot"

	"github.com/edaniels/golog"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	robotPath := flag.String("robot", "", "robot directory URL or local path (default "+robot.DefaultRobotPath+")")
	joints := flag.String("joints", "", "comma separated joint indices to load individually, e.g. 0,2,4")
	workers := flag.Int("workers", 0, "number of concurrent joint loads")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger := golog.NewLogger("robot-inspect")
	if *debug {
		logger = golog.NewDevelopmentLogger("robot-inspect")
	}

	var cfg config.Config
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			logger.Fatalw("failed to load config", "error", err)
		}
	}
	cfg.Resolve(config.Flags{RobotPath: *robotPath, Workers: *workers})

	indices, err := parseJoints(*joints)
	if err != nil {
		logger.Fatalw("invalid -joints", "error", err)
	}

	base, client, err := robotTransport(cfg.RobotPath)
	if err != nil {
		logger.Fatalw("invalid robot path", "path", cfg.RobotPath, "error", err)
	}
	client.Timeout = cfg.Timeout()

	lastReported := -1
	opts := append(cfg.RobotOptions(),
		robot.WithRobotPath(base),
		robot.WithFetcher(loader.NewHTTPFetcher(client)),
		robot.WithLogger(logger),
		robot.WithOnStateChange(func(s robot.State) {
			if step := int(s.Progress) / 10; step > lastReported {
				lastReported = step
				logger.Infow("loading", "status", s.Status.String(), "progress", s.Progress)
			}
		}),
	)
	rl := robot.NewRobotLoader(opts...)

	ctx := context.Background()
	if len(indices) > 0 {
		err = rl.LoadIndividualJoints(ctx, indices)
	} else {
		err = rl.Load(ctx)
	}
	rl.Close()
	if err != nil {
		logger.Errorw("load failed", "status", rl.Status().String(), "reason", rl.FailReason())
		os.Exit(1)
	}

	printHierarchy(os.Stdout, rl.Container())
}

// parseJoints parses a comma separated list of joint indices. An empty string yields nil.
func parseJoints(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []int
	for _, field := range strings.Split(s, ",") {
		index, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("joint index %q: %w", field, err)
		}
		if index < 0 {
			return nil, fmt.Errorf("joint index %d is negative", index)
		}
		out = append(out, index)
	}
	return out, nil
}

// robotTransport returns the base URL and client for robotPath. Local directories are
// served through a file transport so the loader sees the same URL semantics as over HTTP.
func robotTransport(robotPath string) (string, *http.Client, error) {
	if strings.HasPrefix(robotPath, "http://") || strings.HasPrefix(robotPath, "https://") {
		return robotPath, &http.Client{}, nil
	}

	dir, err := filepath.Abs(robotPath)
	if err != nil {
		return "", nil, err
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return "", nil, fmt.Errorf("%s is not a directory", dir)
	}

	transport := &http.Transport{}
	transport.RegisterProtocol("file", http.NewFileTransport(http.Dir(dir)))
	return "file:///", &http.Client{Transport: transport}, nil
}

// printHierarchy writes one line per node, indented by depth, followed by the world bounds.
func printHierarchy(w io.Writer, root node.Node) {
	root.Traverse(func(n node.Node, depth int) bool {
		indent := strings.Repeat("  ", depth)
		pos := n.Position()
		switch n.Kind() {
		case node.KindMesh:
			rot := n.Rotation()
			fmt.Fprintf(w, "%s%s [mesh] pos=(%.3f, %.3f, %.3f) rot=(%.4f, %.4f, %.4f) order=%s vertices=%d\n",
				indent, n.Name(), pos.X(), pos.Y(), pos.Z(), rot.X, rot.Y, rot.Z, common.EulerOrderName(rot.Order), n.Model().VertexCount())
		case node.KindArrow:
			a := n.Arrow()
			fmt.Fprintf(w, "%s%s [arrow] dir=(%g, %g, %g) length=%g\n",
				indent, n.Name(), a.Direction.X, a.Direction.Y, a.Direction.Z, a.Length)
		default:
			fmt.Fprintf(w, "%s%s [%s] children=%d\n", indent, n.Name(), n.Kind(), len(n.Children()))
		}
		return true
	})

	if box, ok := root.Bounds(); ok {
		fmt.Fprintf(w, "bounds min=(%.3f, %.3f, %.3f) max=(%.3f, %.3f, %.3f)\n",
			box.Min.X, box.Min.Y, box.Min.Z, box.Max.X, box.Max.Y, box.Max.Z)
	} else {
		fmt.Fprintln(w, "bounds empty")
	}
}
