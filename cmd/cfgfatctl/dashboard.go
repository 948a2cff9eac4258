package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ardnew/cfgfat12/configfat"
	"github.com/ardnew/cfgfat12/configfat/flash"
)

func newDashboardCmd() *cobra.Command {
	var registryPath string
	var pollInterval time.Duration

	cmd := &cobra.Command{
		Use:   "dashboard <image-path>",
		Short: "Watch dirty-page and registry state of an image live in a terminal UI",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runDashboard(args[0], registryPath, pollInterval)
		},
	}

	cmd.Flags().StringVarP(&registryPath, "registry", "r", "", "registry description file used to build the image")
	cmd.Flags().DurationVarP(&pollInterval, "interval", "i", 250*time.Millisecond, "poll interval between redraws")
	_ = cmd.MarkFlagRequired("registry")

	return cmd
}

// dashboard is a small tcell terminal UI, in the style of
// earentir-mkfat's retrodfrg package: a title bar, a dirty-page bitmap
// rendered as a grid of filled/empty cells, and a status block listing
// registry entries. Unlike retrodfrg.UI it tracks exactly one data
// source (an *configfat.Disk's image), so it is not split into a
// separate reusable package.
type dashboard struct {
	screen tcell.Screen

	mutex    sync.Mutex
	stopChan chan struct{}
	once     sync.Once
}

func newDashboardScreen() (*dashboard, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	s.DisableMouse()
	return &dashboard{screen: s, stopChan: make(chan struct{})}, nil
}

func (d *dashboard) close() {
	if d.screen == nil {
		return
	}
	d.screen.Fini()
	d.screen = nil
}

func (d *dashboard) requestStop() {
	d.once.Do(func() {
		close(d.stopChan)
		d.screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
}

func (d *dashboard) stopped() bool {
	select {
	case <-d.stopChan:
		return true
	default:
		return false
	}
}

func (d *dashboard) eventLoop() {
	for {
		if d.stopped() {
			return
		}
		ev := d.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			switch {
			case ev.Key() == tcell.KeyCtrlC, ev.Key() == tcell.KeyEscape:
				d.requestStop()
			case ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q'):
				d.requestStop()
			}
		case *tcell.EventResize:
			d.screen.Sync()
		case *tcell.EventInterrupt, nil:
			return
		}
	}
}

func putStr(s tcell.Screen, x, y int, str string) {
	w, _ := s.Size()
	for i, r := range []rune(str) {
		if x+i >= w {
			break
		}
		s.SetContent(x+i, y, r, nil, tcell.StyleDefault)
	}
}

func (d *dashboard) draw(imagePath string, reg *configfat.Registry, mask uint32) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.screen == nil {
		return
	}

	s := d.screen
	s.Clear()
	w, _ := s.Size()

	title := fmt.Sprintf("cfgfatctl dashboard — %s", imagePath)
	putStr(s, 0, 0, strings.Repeat("═", w))
	putStr(s, (w-len(title))/2, 0, title)

	putStr(s, 0, 2, "Dirty pages (■ = dirty, · = clean):")
	var bits strings.Builder
	for page := 0; page < configfat.DirtyPages; page++ {
		if mask&(1<<uint(page)) != 0 {
			bits.WriteRune('■')
		} else {
			bits.WriteRune('·')
		}
	}
	putStr(s, 0, 3, bits.String())

	putStr(s, 0, 5, strings.Repeat("─", w))
	putStr(s, 2, 5, " Registry ")
	row := 6
	for i := 0; i < reg.Len(); i++ {
		e := reg.At(i)
		putStr(s, 0, row, fmt.Sprintf("%-20s default=%-12s %s", e.Name, e.DefaultValue, strings.TrimSpace(e.Comment())))
		row++
	}

	putStr(s, 0, row+1, "press q / Esc / Ctrl+C to quit")
	s.Show()
}

func runDashboard(imagePath, registryPath string, pollInterval time.Duration) error {
	descs, err := loadRegistryFile(registryPath)
	if err != nil {
		return fmt.Errorf("loading registry file: %w", err)
	}
	reg, err := buildRegistry(descs)
	if err != nil {
		return fmt.Errorf("building registry: %w", err)
	}

	fs := afero.NewOsFs()
	fl, err := flash.NewAferoRegion(fs, imagePath, configfat.ImageSize)
	if err != nil {
		return fmt.Errorf("opening %s: %w", imagePath, err)
	}

	clk := configfat.NewSystemClock()
	disk := configfat.New(fl, reg, clk)
	disk.Init()

	d, err := newDashboardScreen()
	if err != nil {
		return fmt.Errorf("opening terminal: %w", err)
	}
	defer d.close()
	go d.eventLoop()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-d.stopChan:
			return nil
		case <-ticker.C:
			disk.Process()
			d.draw(imagePath, reg, disk.DirtyMask())
		}
	}
}
