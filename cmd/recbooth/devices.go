package main

import (
	"fmt"
	"io"
	"strconv"

	"recbooth/internal/audio"
)

// printDevices renders every audio device the host reports; input-capable
// devices are the ones usable with --device.
func printDevices(out io.Writer, capturer audio.Capturer) error {
	devices, err := capturer.Devices()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Fprintln(out, "No audio devices detected.")
		return nil
	}

	rows := make([][]string, 0, len(devices))
	for _, device := range devices {
		input := ""
		if device.Input() {
			input = "yes"
		}
		rows = append(rows, []string{
			strconv.Itoa(device.Index),
			device.Name,
			device.HostAPI,
			input,
			strconv.FormatFloat(device.DefaultSampleRate, 'f', 0, 64),
		})
	}

	fmt.Fprintln(out, "Detected audio devices:")
	fmt.Fprintln(out, renderTable(
		[]string{"Index", "Name", "Host API", "Input", "Default Rate"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
	))
	return nil
}
