package serial

import (
	"fmt"

	"go.bug.st/serial/enumerator"
)

// PortInfo describes an attached serial device.
type PortInfo struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
}

// Label is a one-line description suitable for a port picker.
func (p PortInfo) Label() string {
	if !p.IsUSB {
		return p.Name
	}
	if p.Product != "" {
		return fmt.Sprintf("%s (%s, USB %s:%s)", p.Name, p.Product, p.VID, p.PID)
	}
	return fmt.Sprintf("%s (USB %s:%s)", p.Name, p.VID, p.PID)
}

// replaced in tests
var listPortDetails = enumerator.GetDetailedPortsList

// DescribePorts queries the OS for attached serial devices in the order it
// reports them.
func DescribePorts() ([]PortInfo, error) {
	details, err := listPortDetails()
	if err != nil {
		return nil, fmt.Errorf("enumerate ports: %w", err)
	}
	out := make([]PortInfo, 0, len(details))
	for _, d := range details {
		if d == nil {
			continue
		}
		out = append(out, PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}
	return out, nil
}

// EnumeratePorts returns the identifiers of attached serial devices. The
// result may be empty.
func EnumeratePorts() ([]string, error) {
	infos, err := DescribePorts()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(infos))
	for i, p := range infos {
		names[i] = p.Name
	}
	return names, nil
}
