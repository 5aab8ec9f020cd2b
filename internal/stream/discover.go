package stream

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const defaultSysfsVideoRoot = "/sys/class/video4linux"

// Discover locates the camera's /dev/videoN node by USB vendor/product
// identifiers. An explicit device path from config wins. Returns
// ErrDeviceNotFound when nothing matches; the daemon treats that as a
// fatal startup error.
func Discover(vendorID, productID uint16, explicit string) (string, error) {
	return discoverIn(defaultSysfsVideoRoot, vendorID, productID, explicit)
}

func discoverIn(sysfsRoot string, vendorID, productID uint16, explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("%w: configured device %s: %v", ErrDeviceNotFound, explicit, err)
		}
		return explicit, nil
	}

	entries, err := os.ReadDir(sysfsRoot)
	if err != nil {
		return "", fmt.Errorf("%w: cannot scan %s: %v", ErrDeviceNotFound, sysfsRoot, err)
	}

	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "video") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		vid, pid, ok := usbIDs(filepath.Join(sysfsRoot, name, "device"))
		if !ok {
			continue
		}
		if vid == vendorID && pid == productID {
			dev := "/dev/" + name
			slog.Info("camera device found",
				"device", dev,
				"vendor_id", fmt.Sprintf("0x%04x", vid),
				"product_id", fmt.Sprintf("0x%04x", pid),
			)
			return dev, nil
		}
	}

	return "", fmt.Errorf("%w: no video device with vendor 0x%04x product 0x%04x",
		ErrDeviceNotFound, vendorID, productID)
}

// usbIDs walks up from a video node's device link looking for the USB
// descriptor files. The node's device entry points at a USB interface;
// idVendor/idProduct live on an ancestor device directory.
func usbIDs(deviceLink string) (vid, pid uint16, ok bool) {
	dir, err := filepath.EvalSymlinks(deviceLink)
	if err != nil {
		return 0, 0, false
	}

	for depth := 0; depth < 4; depth++ {
		v, errV := readHexFile(filepath.Join(dir, "idVendor"))
		p, errP := readHexFile(filepath.Join(dir, "idProduct"))
		if errV == nil && errP == nil {
			return v, p, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return 0, 0, false
}

func readHexFile(path string) (uint16, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(strings.TrimSpace(string(data)), 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(n), nil
}
