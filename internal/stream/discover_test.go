package stream

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// fakeSysfs lays out a video4linux tree where videoN's device link
// resolves into a USB device directory carrying id files.
func fakeSysfs(t *testing.T, node, vid, pid string) string {
	t.Helper()
	root := t.TempDir()

	usbDev := filepath.Join(root, "usb", "1-1")
	iface := filepath.Join(usbDev, "1-1:1.0")
	if err := os.MkdirAll(iface, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(usbDev, "idVendor"), vid)
	writeFile(t, filepath.Join(usbDev, "idProduct"), pid)

	videoDir := filepath.Join(root, node)
	if err := os.MkdirAll(videoDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(iface, filepath.Join(videoDir, "device")); err != nil {
		t.Fatal(err)
	}
	return root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverMatchesVendorProduct(t *testing.T) {
	root := fakeSysfs(t, "video0", "1e4e", "0100")

	dev, err := discoverIn(root, 0x1e4e, 0x0100, "")
	if err != nil {
		t.Fatalf("discover failed: %v", err)
	}
	if dev != "/dev/video0" {
		t.Errorf("device = %s, want /dev/video0", dev)
	}
}

func TestDiscoverNoMatch(t *testing.T) {
	root := fakeSysfs(t, "video0", "dead", "beef")

	_, err := discoverIn(root, 0x1e4e, 0x0100, "")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("error = %v, want ErrDeviceNotFound", err)
	}
}

func TestDiscoverExplicitDevice(t *testing.T) {
	dev := filepath.Join(t.TempDir(), "video9")
	writeFile(t, dev, "")

	got, err := discoverIn("/nonexistent", 0, 0, dev)
	if err != nil {
		t.Fatalf("discover failed: %v", err)
	}
	if got != dev {
		t.Errorf("device = %s, want %s", got, dev)
	}
}

func TestDiscoverExplicitDeviceMissing(t *testing.T) {
	_, err := discoverIn("/nonexistent", 0, 0, "/dev/does-not-exist")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("error = %v, want ErrDeviceNotFound", err)
	}
}
