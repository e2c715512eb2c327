// Command persistmem inspects and validates persistmem image files.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/netkeep80/persistmem/pkg/persistmem"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s <create|inspect|validate> <path> [size]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		flag.Usage()
		os.Exit(2)
	}

	cmd, path := args[0], args[1]

	var err error
	switch cmd {
	case "create":
		err = runCreate(path, args[2:])
	case "inspect":
		err = runInspect(path)
	case "validate":
		err = runValidate(path)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "persistmem: %v\n", err)
		os.Exit(1)
	}
}

func runCreate(path string, rest []string) error {
	size := uint64(1 << 20)
	if len(rest) > 0 {
		if _, err := fmt.Sscanf(rest[0], "%d", &size); err != nil {
			return fmt.Errorf("invalid size %q: %w", rest[0], err)
		}
	}
	img, err := persistmem.CreateImage(path, size)
	if err != nil {
		return err
	}
	defer img.Close()
	fmt.Printf("created %s: region-size=%d free-size=%d\n", path, img.Manager.RegionSize(), img.Manager.FreeSize())
	return nil
}

func runInspect(path string) error {
	img, err := persistmem.LoadImage(path)
	if err != nil {
		return err
	}
	defer img.Manager.Destroy()

	stats := img.Manager.Stats()
	fmt.Printf("region-size:       %d\n", img.Manager.RegionSize())
	fmt.Printf("free-size:         %d\n", img.Manager.FreeSize())
	fmt.Printf("allocated-blocks:  %d\n", img.Manager.AllocatedBlocks())
	fmt.Printf("allocation-count:  %d\n", stats.AllocationCount)
	fmt.Printf("deallocation-count:%d\n", stats.DeallocationCount)
	return nil
}

func runValidate(path string) error {
	img, err := persistmem.LoadImage(path)
	if err != nil {
		return err
	}
	defer img.Manager.Destroy()

	issues := img.Manager.ValidateDetailed()
	if len(issues) == 0 {
		fmt.Println("ok")
		return nil
	}
	for _, issue := range issues {
		fmt.Println(issue.String())
	}
	return fmt.Errorf("%d invariant violations", len(issues))
}
