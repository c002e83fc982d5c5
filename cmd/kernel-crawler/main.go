// Command kernel-crawler crawls one or every registered Linux distribution
// for kernel build material and prints the result as a driverkit.Config
// map, per spec.md §6.1.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/quay/kernel-crawler/crawler"
	"github.com/quay/kernel-crawler/distro"
	"github.com/quay/kernel-crawler/driverkit"
	"github.com/quay/kernel-crawler/fetch"
)

// imageList accumulates repeated -image flag values, the stdlib flag.Value
// idiom for a repeatable option (no third-party flag library is pulled in
// anywhere in the example pack; see DESIGN.md).
type imageList []string

func (l *imageList) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(*l, ",")
}

func (l *imageList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	var exit int
	defer func() {
		if exit != 0 {
			os.Exit(exit)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	fs := flag.NewFlagSet("kernel-crawler", flag.ExitOnError)
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage of %s:\n", os.Args[0])
		fmt.Fprintln(out, "\nSubcommands")
		fmt.Fprintln(out, "\n  crawl")
		fmt.Fprintln(out, "\tcrawl one or every registered distribution for kernel build material")
		fs.PrintDefaults()
	}

	distroName := fs.String("distro", "*", "distro name to crawl, or \"*\" for every registered distro")
	version := fs.String("version", "", "kernel version filter (exact or substring, family-dependent)")
	arch := fs.String("arch", "x86_64", "architecture: x86_64 or aarch64")
	outFmt := fs.String("out_fmt", "json", "output format: plain, json, or driverkit")
	var images imageList
	fs.Var(&images, "image", "container image reference for container-probed distros (repeatable)")

	if len(os.Args) < 2 || os.Args[1] != "crawl" {
		fs.Usage()
		os.Exit(99)
	}
	if err := fs.Parse(os.Args[2:]); err != nil {
		log.Fatal(err)
	}

	if !crawler.ValidArch(*arch) {
		fmt.Fprintf(os.Stderr, "invalid -arch %q: must be x86_64 or aarch64\n", *arch)
		os.Exit(99)
	}
	switch *outFmt {
	case "plain", "json", "driverkit":
	default:
		fmt.Fprintf(os.Stderr, "invalid -out_fmt %q: must be plain, json, or driverkit\n", *outFmt)
		os.Exit(99)
	}

	distro.RegisterDefaults(fetch.DefaultConfig(), *arch)

	var c crawler.Crawler
	result, err := c.Crawl(ctx, crawler.Request{
		Distro:  *distroName,
		Version: *version,
		Arch:    *arch,
		Images:  images,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(99)
	}

	if err := writeResult(os.Stdout, result, *outFmt); err != nil {
		log.Print(err)
		exit = 1
	}
}

// writeResult renders result per outFmt. "json" and "driverkit" both emit
// the full documented schema (driverkit being the name the downstream
// builder uses for the same payload); "plain" lists one
// "distro\tkernelrelease\ttarget" line per config, for quick eyeballing.
func writeResult(w io.Writer, result driverkit.Map, outFmt string) error {
	switch outFmt {
	case "plain":
		for _, name := range sortedKeys(result) {
			for _, cfg := range result[name] {
				if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", name, cfg.KernelRelease, cfg.Target); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		body, err := result.MarshalIndent()
		if err != nil {
			return err
		}
		_, err = w.Write(append(body, '\n'))
		return err
	}
}

func sortedKeys(m driverkit.Map) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
