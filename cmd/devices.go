package cmd

import (
	"fmt"
	"strconv"

	"github.com/ortelius/sbom-finder-dashboard/catalog"
	"github.com/ortelius/sbom-finder-dashboard/detail"
	"github.com/ortelius/sbom-finder-dashboard/model"
	"github.com/spf13/cobra"
)

var (
	searchQuery        string
	searchManufacturer string
	searchOS           string
	searchCategory     string
	assumeYes          bool
)

// devicesCmd groups the device catalog commands
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List, search, show and delete devices",
}

var devicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every device, newest SBOM first",
	Args:  cobra.NoArgs,
	RunE:  runDevicesList,
}

var devicesSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search devices by text, manufacturer, operating system and category",
	Args:  cobra.NoArgs,
	RunE:  runDevicesSearch,
}

var devicesShowCmd = &cobra.Command{
	Use:   "show <deviceId>",
	Short: "Show a device with its packages, vulnerabilities and references",
	Args:  cobra.ExactArgs(1),
	RunE:  runDevicesShow,
}

var devicesDeleteCmd = &cobra.Command{
	Use:   "delete <deviceId>",
	Short: "Delete a device and its SBOM",
	Args:  cobra.ExactArgs(1),
	RunE:  runDevicesDelete,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
	devicesCmd.AddCommand(devicesListCmd, devicesSearchCmd, devicesShowCmd, devicesDeleteCmd)

	devicesSearchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "Free text matched against name, OS and kernel")
	devicesSearchCmd.Flags().StringVar(&searchManufacturer, "manufacturer", "", "Manufacturer filter")
	devicesSearchCmd.Flags().StringVar(&searchOS, "os", "", "Operating system filter")
	devicesSearchCmd.Flags().StringVar(&searchCategory, "category", "", "Category filter")

	devicesDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Delete without asking for confirmation")
}

func runDevicesList(cmd *cobra.Command, args []string) error {
	api, logger, err := newClient()
	if err != nil {
		return err
	}

	devices, err := catalog.New(api, logger).ListAll(cmd.Context())
	if err != nil {
		return err
	}
	printDevices(cmd.OutOrStdout(), devices)
	return nil
}

func runDevicesSearch(cmd *cobra.Command, args []string) error {
	api, logger, err := newClient()
	if err != nil {
		return err
	}

	devices, err := catalog.New(api, logger).Search(cmd.Context(), model.SearchFilter{
		Query:           searchQuery,
		Manufacturer:    searchManufacturer,
		OperatingSystem: searchOS,
		Category:        searchCategory,
	})
	if err != nil {
		return err
	}
	printDevices(cmd.OutOrStdout(), devices)
	return nil
}

func runDevicesShow(cmd *cobra.Command, args []string) error {
	api, logger, err := newClient()
	if err != nil {
		return err
	}

	r := detail.NewRenderer(api, logger)
	if _, err := r.Load(cmd.Context(), args[0]); err != nil {
		return err
	}
	printDevice(cmd.OutOrStdout(), r.View())
	return nil
}

func runDevicesDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid device id %q", args[0])
	}

	api, logger, err := newClient()
	if err != nil {
		return err
	}

	var confirm catalog.Confirmer = newPromptConfirmer(cmd)
	if assumeYes {
		confirm = catalog.ConfirmFunc(func(string) bool { return true })
	}

	deleted, err := catalog.New(api, logger).Delete(cmd.Context(), id, confirm)
	if err != nil {
		return err
	}
	if !deleted {
		fmt.Fprintln(cmd.OutOrStdout(), "Delete cancelled.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted device %d\n", id)
	return nil
}
