package cmd

import (
	"bytes"
	"fmt"
	"runtime"

	"github.com/olekukonko/tablewriter"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/urfave/cli"
)

// List the cpu devices backing the render worker pool.
func ListDevices(ctx *cli.Context) error {
	setupLogging(ctx)

	cpuInfo, err := cpu.Info()
	if err != nil {
		return fmt.Errorf("failed to query cpu info: %v", err)
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Device", "Cores", "Clock"})
	for _, info := range cpuInfo {
		table.Append([]string{
			info.ModelName,
			fmt.Sprintf("%d", info.Cores),
			fmt.Sprintf("%3.1f GHz", info.Mhz/1000.0),
		})
	}
	table.SetFooter([]string{"Max render workers", "", fmt.Sprintf("%d", runtime.NumCPU())})
	table.Render()

	if memInfo, err := mem.VirtualMemory(); err == nil {
		buf.WriteString(fmt.Sprintf("available memory: %d MB\n", memInfo.Available/(1024*1024)))
	}

	logger.Noticef("cpu devices\n%s", buf.String())

	return nil
}
