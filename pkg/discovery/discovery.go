// Package discovery finds network instruments via mDNS. LXI instruments
// advertise themselves as _lxi._tcp and raw-socket SCPI endpoints as
// _scpi-raw._tcp; browsing either yields the addresses a transport
// connection can dial.
package discovery

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// mDNS service types instruments advertise.
const (
	// ServiceTypeLXI is the LXI device service.
	ServiceTypeLXI = "_lxi._tcp"

	// ServiceTypeSCPIRaw is the raw-socket SCPI service.
	ServiceTypeSCPIRaw = "_scpi-raw._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultBrowseTimeout bounds a browse operation when the caller's
	// context has no deadline.
	DefaultBrowseTimeout = 10 * time.Second
)

// TXT record keys defined by the LXI discovery specification.
const (
	TXTKeyManufacturer = "Manufacturer"
	TXTKeyModel        = "Model"
	TXTKeySerial       = "SerialNumber"
	TXTKeyFirmware     = "FirmwareVersion"
)

// Service describes one discovered instrument endpoint.
type Service struct {
	// InstanceName is the advertised instance name.
	InstanceName string

	// Host is the mDNS host name.
	Host string

	// Port is the advertised command port.
	Port uint16

	// Addresses holds every resolved IP, v4 and v6.
	Addresses []string

	// Manufacturer, Model, Serial and Firmware come from the TXT record
	// and may be empty.
	Manufacturer string
	Model        string
	Serial       string
	Firmware     string
}

// Addr returns a dialable "host:port" for the first address, or empty when
// the service has no addresses.
func (s *Service) Addr() string {
	if len(s.Addresses) == 0 {
		return ""
	}
	return net.JoinHostPort(s.Addresses[0], strconv.Itoa(int(s.Port)))
}

// Browser browses for instruments on the local network.
type Browser struct {
	// Interface restricts browsing to one network interface. Empty means
	// all interfaces.
	Interface string
}

// Browse searches for instruments of the given service type and streams
// them on the returned channel. The channel is closed when the context is
// done. Addresses from multiple interfaces are aggregated per instance.
func (b *Browser) Browse(ctx context.Context, serviceType string) (<-chan *Service, error) {
	out := make(chan *Service)

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	opts := b.browserOptions()

	go func() {
		defer close(out)

		// Track services by instance name, aggregating addresses.
		services := make(map[string]*Service)

		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				svc := entryToService(entry)
				existing, found := services[svc.InstanceName]
				if found {
					existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
					continue
				}
				services[svc.InstanceName] = svc
				select {
				case out <- svc:
				case <-ctx.Done():
					return
				}

			case entry, ok := <-removed:
				if !ok {
					continue
				}
				delete(services, entry.Instance)

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, serviceType, Domain, entries, removed, opts...)
	}()

	return out, nil
}

// FindAll browses both instrument service types until the context is done
// or the default browse timeout elapses, and returns everything found.
func (b *Browser) FindAll(ctx context.Context) ([]*Service, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultBrowseTimeout)
		defer cancel()
	}

	var found []*Service
	for _, serviceType := range []string{ServiceTypeLXI, ServiceTypeSCPIRaw} {
		ch, err := b.Browse(ctx, serviceType)
		if err != nil {
			return found, err
		}
		for svc := range ch {
			found = append(found, svc)
		}
	}
	return found, nil
}

func (b *Browser) browserOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption

	if b.Interface != "" {
		iface, err := net.InterfaceByName(b.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}

	return opts
}

func entryToService(entry *zeroconf.ServiceEntry) *Service {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	txt := ParseTXT(entry.Text)
	return &Service{
		InstanceName: entry.Instance,
		Host:         entry.HostName,
		Port:         uint16(entry.Port),
		Addresses:    addrs,
		Manufacturer: txt[TXTKeyManufacturer],
		Model:        txt[TXTKeyModel],
		Serial:       txt[TXTKeySerial],
		Firmware:     txt[TXTKeyFirmware],
	}
}

// ParseTXT decodes "key=value" TXT strings into a map. Keys without a
// value map to the empty string; malformed entries are skipped.
func ParseTXT(records []string) map[string]string {
	out := make(map[string]string, len(records))
	for _, record := range records {
		if record == "" {
			continue
		}
		key, value, _ := strings.Cut(record, "=")
		if key == "" {
			continue
		}
		out[key] = value
	}
	return out
}

func mergeAddresses(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, a := range existing {
		seen[a] = true
	}
	for _, a := range incoming {
		if !seen[a] {
			existing = append(existing, a)
			seen[a] = true
		}
	}
	return existing
}
