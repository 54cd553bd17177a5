// Package console drives a session dataset from a numbered text menu.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"code.cloudfoundry.org/lager/v3"
	"github.com/Ogstra/ogs-traffic/core"
)

var errNotLoaded = errors.New("please load data first")

type menuItem struct {
	label  string
	action func(c *Console) error
}

var menu = []menuItem{
	{"Load Traffic Data", (*Console).load},
	{"View Traffic Data", (*Console).list},
	{"View Traffic Data in Time Range", (*Console).viewRange},
	{"View Traffic Data in Window", (*Console).viewWindow},
	{"Analyze Average Traffic", (*Console).average},
	{"Find Peak Traffic Hour", (*Console).peakHour},
	{"Add Traffic Data", (*Console).add},
	{"Delete Traffic Data", (*Console).remove},
	{"Export Traffic Data to CSV", (*Console).export},
	{"Display Traffic Summary", (*Console).summary},
	{"Visualize Traffic Data", (*Console).visualize},
}

type Console struct {
	in      *bufio.Scanner
	out     io.Writer
	config  *core.Config
	logger  lager.Logger
	dataset *core.Dataset
}

func New(in io.Reader, out io.Writer, config *core.Config, logger lager.Logger) *Console {
	return &Console{
		in:     bufio.NewScanner(in),
		out:    out,
		config: config,
		logger: logger.Session("console"),
	}
}

// SetDataset makes ds the session dataset, as if it had been loaded.
func (c *Console) SetDataset(ds *core.Dataset) {
	c.dataset = ds
}

// Run shows the menu until the user exits or input ends.
func (c *Console) Run() error {
	for {
		c.printMenu()
		line, ok := c.readLine()
		if !ok {
			return c.in.Err()
		}
		choice, err := strconv.Atoi(line)
		if err != nil || choice < 0 || choice > len(menu) {
			c.printf("Invalid choice. Please try again.\n")
			continue
		}
		if choice == 0 {
			c.printf("Exiting...\n")
			return nil
		}
		if err := menu[choice-1].action(c); err != nil {
			c.printf("Error: %v\n", err)
		}
	}
}

func (c *Console) printMenu() {
	c.printf("\n====================================\n")
	c.printf("        TRAFFIC ANALYZER MENU\n")
	c.printf("====================================\n")
	for i, item := range menu {
		c.printf("%2d. %s\n", i+1, item.label)
	}
	c.printf(" 0. Exit\n")
	c.printf("====================================\n")
	c.printf("Please select an option: ")
}

func (c *Console) load() error {
	path := c.prompt("CSV file", c.config.DataPath)
	ds := core.NewDataset()
	if err := ds.LoadFile(path); err != nil {
		return err
	}
	c.dataset = ds
	c.logger.Info("dataset-loaded", lager.Data{"path": path, "records": ds.Len()})
	c.printf("Data loaded successfully! %d records.\n", ds.Len())
	return nil
}

func (c *Console) list() error {
	if c.dataset == nil {
		return errNotLoaded
	}
	for i, r := range c.dataset.Records() {
		c.printf("[%d] %s\n", i, r)
	}
	return nil
}

func (c *Console) viewRange() error {
	if c.dataset == nil {
		return errNotLoaded
	}
	start := c.prompt("Start Time (YYYY-MM-DD HH:MM:SS)", "")
	end := c.prompt("End Time (YYYY-MM-DD HH:MM:SS)", "")
	records, err := c.dataset.FilterByRange(start, end)
	if err != nil {
		return err
	}
	c.printRecords(records, "No data found in the given time range.")
	return nil
}

func (c *Console) viewWindow() error {
	if c.dataset == nil {
		return errNotLoaded
	}
	anchor, err := core.ParseUserTimestamp(c.prompt("Time (YYYY-MM-DD HH:MM:SS)", ""))
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidRange, err)
	}
	seconds, err := strconv.ParseInt(c.prompt("Time window in seconds", ""), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: window must be a number of seconds", core.ErrInvalidInput)
	}
	span, err := core.SecondsSpan(seconds)
	if err != nil {
		return err
	}
	dir, err := core.ParseDirection(c.prompt("Direction (1 = forward, -1 = backward)", "1"))
	if err != nil {
		return err
	}

	avg, records, err := c.dataset.WindowAverage(anchor, span, dir)
	if errors.Is(err, core.ErrEmptyDataset) {
		c.printf("No traffic data found in the specified window.\n")
		return nil
	}
	if err != nil {
		return err
	}
	c.printf("Traffic values within the sliding window:\n")
	c.printf("---------------------------------------------------\n")
	c.printRecords(records, "")
	c.printf("Average Traffic: %.2f\n", avg)
	return nil
}

func (c *Console) average() error {
	if c.dataset == nil {
		return errNotLoaded
	}
	avg, err := c.dataset.Average()
	if err != nil {
		return err
	}
	c.printf("The average traffic count is: %.2f\n", avg)
	return nil
}

func (c *Console) peakHour() error {
	if c.dataset == nil {
		return errNotLoaded
	}
	startText := c.prompt("Start time (blank for all data)", "")
	endText := c.prompt("End time (blank for all data)", "")

	var peak core.PeakHour
	var err error
	if startText == "" && endText == "" {
		peak, err = c.dataset.PeakHour()
	} else {
		var start, end time.Time
		if start, err = core.ParseUserTimestamp(startText); err != nil {
			return fmt.Errorf("%w: start: %v", core.ErrInvalidRange, err)
		}
		if end, err = core.ParseUserTimestamp(endText); err != nil {
			return fmt.Errorf("%w: end: %v", core.ErrInvalidRange, err)
		}
		peak, err = c.dataset.PeakHourBetween(start, end)
	}
	if err != nil {
		return err
	}
	c.printf("The peak traffic hour is: %02d:00 with %d vehicles.\n", peak.Hour, peak.Total)
	return nil
}

func (c *Console) add() error {
	if c.dataset == nil {
		return errNotLoaded
	}
	count := c.prompt("Traffic Count", "")
	ts := c.prompt("Timestamp (YYYY-MM-DD HH:MM:SS)", "")
	rec, err := c.dataset.Add(count, ts)
	if err != nil {
		return err
	}
	c.printf("Added %s\n", rec)
	return nil
}

func (c *Console) remove() error {
	if c.dataset == nil {
		return errNotLoaded
	}
	pos, err := strconv.Atoi(c.prompt("Position to delete", ""))
	if err != nil {
		return fmt.Errorf("%w: position must be an integer", core.ErrInvalidInput)
	}
	rec, err := c.dataset.Delete(pos)
	if err != nil {
		return err
	}
	c.printf("Deleted %s\n", rec)
	return nil
}

func (c *Console) export() error {
	if c.dataset == nil {
		return errNotLoaded
	}
	path := c.prompt("Export to", c.config.ExportPath)
	if err := c.dataset.ExportFile(path); err != nil {
		return err
	}
	c.printf("Data exported to %s\n", path)
	return nil
}

func (c *Console) summary() error {
	if c.dataset == nil {
		return errNotLoaded
	}
	s, err := c.dataset.Summary()
	if err != nil {
		return err
	}
	c.printf("Traffic Summary:\n")
	c.printf("---------------------------------------------------\n")
	c.printf("Total Entries: %d\n", s.Entries)
	c.printf("Total Traffic Count: %d\n", s.Total)
	c.printf("Average Traffic Count: %.2f\n", s.Average)
	c.printf("Maximum Traffic: %d\n", s.Max)
	c.printf("Minimum Traffic: %d\n", s.Min)
	c.printf("Start Time: %s\n", core.DisplayTimestamp(s.Start))
	c.printf("End Time: %s\n", core.DisplayTimestamp(s.End))
	return nil
}

func (c *Console) visualize() error {
	if c.dataset == nil {
		return errNotLoaded
	}
	records := c.dataset.Records()

	if err := writeFile(c.config.PlotDataPath, func(w io.Writer) error {
		return core.WritePlotData(w, records)
	}); err != nil {
		return err
	}
	if err := writeFile(c.config.ChartPath, func(w io.Writer) error {
		return core.RenderChart(w, records, c.config.ChartOptions())
	}); err != nil {
		return err
	}
	c.printf("Chart written to %s (plot data in %s)\n", c.config.ChartPath, c.config.PlotDataPath)
	return nil
}

func (c *Console) printRecords(records []core.Record, empty string) {
	if len(records) == 0 && empty != "" {
		c.printf("%s\n", empty)
		return
	}
	for _, r := range records {
		c.printf("%s\n", r)
	}
}

// prompt asks for a value; an empty answer yields def.
func (c *Console) prompt(label, def string) string {
	if def != "" {
		c.printf("%s [%s]: ", label, def)
	} else {
		c.printf("%s: ", label)
	}
	line, _ := c.readLine()
	if line == "" {
		return def
	}
	return line
}

func (c *Console) readLine() (string, bool) {
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

func (c *Console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

func writeFile(path string, fn func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrIO, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrIO, err)
	}
	return nil
}
