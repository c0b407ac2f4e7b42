// Command srcinspect prints a summary of a Source engine asset file.
//
// Usage:
//
//	srcinspect bsp <input.bsp>   Print lump counts and static prop info
//	srcinspect phy <input.phy>   Print solid and text section counts
//	srcinspect mdl <input.mdl>   Print bone and material names
//	srcinspect vpk <input.vpk>   List the root directory of a VPK
package main

import (
	"fmt"
	"os"

	"github.com/TAServers/source-parsers/bsp"
	"github.com/TAServers/source-parsers/mdl"
	"github.com/TAServers/source-parsers/phy"
	"github.com/TAServers/source-parsers/vpk"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "bsp":
		err = runBsp(os.Args[2:])
	case "phy":
		err = runPhy(os.Args[2:])
	case "mdl":
		err = runMdl(os.Args[2:])
	case "vpk":
		err = runVpk(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "srcinspect: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "srcinspect: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  srcinspect bsp <input.bsp>   Print lump counts and static prop info
  srcinspect phy <input.phy>   Print solid and text section counts
  srcinspect mdl <input.mdl>   Print bone and material names
  srcinspect vpk <input.vpk>   List the root directory of a VPK

Run without a command for this message.
`)
}

func runBsp(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("bsp: missing input file")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	b, err := bsp.New(data, nil)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}

	fmt.Printf("planes:       %d\n", len(b.Planes))
	fmt.Printf("faces:        %d\n", len(b.Faces))
	fmt.Printf("models:       %d\n", len(b.Models))
	fmt.Printf("displacements: %d\n", len(b.Displacements))
	fmt.Printf("pakfile entries: %d\n", len(b.Pakfile))
	fmt.Printf("has static props: %v\n", b.HasStaticProps())
	return nil
}

func runPhy(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("phy: missing input file")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	p, err := phy.New(data, nil)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}

	fmt.Printf("checksum:    %d\n", p.GetChecksum())
	fmt.Printf("solids:      %d\n", len(p.GetSolids()))
	fmt.Printf("text entries: %d\n", len(p.GetTextSection()))
	return nil
}

func runMdl(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("mdl: missing input file")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	m, err := mdl.NewMdl(data, nil)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}

	fmt.Printf("name:      %s\n", m.GetName())
	fmt.Printf("bones:     %d\n", len(m.GetBones()))
	for _, b := range m.GetBones() {
		fmt.Printf("  %s\n", b.Name)
	}
	fmt.Printf("materials: %d\n", len(m.GetMaterials()))
	for _, mat := range m.GetMaterials() {
		fmt.Printf("  %s\n", mat.Name)
	}
	return nil
}

func runVpk(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("vpk: missing input file")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	v, err := vpk.New(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}

	contents := v.List("")
	fmt.Println("directories:")
	for _, d := range contents.Directories {
		fmt.Printf("  %s\n", d)
	}
	fmt.Println("files:")
	for _, f := range contents.Files {
		fmt.Printf("  %s\n", f)
	}
	return nil
}
