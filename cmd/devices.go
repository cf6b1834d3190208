// SPDX-License-Identifier: MIT
package cmd

import (
	"audiostate/internal/audio"
	"audiostate/internal/tui"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newDevicesCommand(opts *options) *cobra.Command {
	var interactive bool
	c := &cobra.Command{
		Use:   "devices",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := opts.load(); err != nil {
				return err
			}
			if err := audio.Initialize(); err != nil {
				return err
			}
			defer audio.Terminate()

			if !interactive {
				devices, err := audio.HostDevices()
				if err != nil {
					return err
				}
				audio.WriteDevices(cmd.OutOrStdout(), devices)
				return nil
			}

			final, err := tea.NewProgram(tui.NewDeviceListModel(audio.HostDevices),
				tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return err
			}
			m, ok := final.(tui.DeviceListModel)
			if !ok {
				return nil
			}
			if sel, ok := m.Selection(); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "audio:\n  input_device: %d\n  sample_rate: %.0f\n",
					sel.Device.ID, sel.SampleRate)
			}
			return nil
		},
	}
	c.Flags().BoolVarP(&interactive, "select", "s", false,
		"Browse devices and print the configuration for the chosen one")
	return c
}
