package usbid

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `# usb.ids excerpt
#	vendor  vendor_name
#		device  device_name
1209  Generic
	0001  pid.codes Test PID
	2000  Zissi Slider
		00  interface under a product
16c0  Van Ooijen Technische Informatica
	05dc  shared ID for use with libusb

C 00  (Defined at Interface level)
	01  Audio
`

func TestParse(t *testing.T) {
	db := New()
	require.NoError(t, db.Parse(strings.NewReader(sample)))

	assert.Equal(t, "Generic", db.Vendor(0x1209))
	assert.Equal(t, "pid.codes Test PID", db.Product(0x1209, 0x0001))
	assert.Equal(t, "Zissi Slider", db.Product(0x1209, 0x2000))
	assert.Equal(t, "shared ID for use with libusb", db.Product(0x16c0, 0x05dc))

	// class section entries are not products of the previous vendor
	assert.Empty(t, db.Product(0x16c0, 0x0001))

	vendors, products := db.Len()
	assert.Equal(t, 2, vendors)
	assert.Equal(t, 3, products)
}

func TestDescribe(t *testing.T) {
	db := New()
	require.NoError(t, db.Parse(strings.NewReader(sample)))

	tests := []struct {
		vid, pid uint16
		want     string
	}{
		{0x1209, 0x0001, "1209:0001 Generic pid.codes Test PID"},
		{0x1209, 0xbeef, "1209:beef Generic"},
		{0xdead, 0xbeef, "dead:beef"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, db.Describe(tt.vid, tt.pid))
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usb.ids")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	db := New()
	require.NoError(t, db.Load("/nonexistent/usb.ids", path))
	assert.Equal(t, "Generic", db.Vendor(0x1209))
}

func TestLoadNotFound(t *testing.T) {
	db := New()
	assert.ErrorIs(t, db.Load("/nonexistent/usb.ids"), ErrNotFound)
	vendors, products := db.Len()
	assert.Zero(t, vendors)
	assert.Zero(t, products)
}

func TestConcurrentLookup(t *testing.T) {
	db := New()
	require.NoError(t, db.Parse(strings.NewReader(sample)))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = db.Describe(0x1209, 0x0001)
			}
		}()
	}
	wg.Wait()
}
