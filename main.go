package main

import (
	"flag"
	"log"
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/miekg/dns"

	"authoritative-core/internal/config"
	"authoritative-core/internal/metrics"
	"authoritative-core/internal/query"
	"authoritative-core/internal/reader"
	"authoritative-core/internal/server"
	"authoritative-core/internal/zones"
)

func main() {
	go func() {
		log.Println("[pprof] starting on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			log.Printf("[pprof] server stopped: %v", err)
		}
	}()

	var (
		configFile     = flag.String("config-file", "conf/named.toml", "Path to the zone configuration file")
		concurrency    = flag.Int("concurrency", 500, "Number of concurrent query handlers")
		rateLimitRPS   = flag.Int("rate-limit-rps", 1000, "Rate limit: requests per second per IP")
		rateLimitBurst = flag.Int("rate-limit-burst", 2000, "Rate limit: burst size per IP")
	)
	flag.StringVar(configFile, "c", *configFile, "Path to the zone configuration file (shorthand)")
	flag.Parse()

	az, err := loadZones(*configFile)
	if err != nil {
		log.Fatalf("[main] loading zones: %v", err)
	}

	semaphore := make(chan struct{}, *concurrency)
	rateLimiter := server.NewRateLimiter(*rateLimitRPS, *rateLimitBurst, 3*time.Minute)
	defer rateLimiter.Stop()
	m := metrics.New()

	dns.HandleFunc(".", func(w dns.ResponseWriter, req *dns.Msg) {
		if len(req.Question) == 0 {
			resp := new(dns.Msg)
			resp.SetRcode(req, dns.RcodeFormatError)
			w.WriteMsg(resp)
			return
		}

		ip, _, _ := net.SplitHostPort(w.RemoteAddr().String())
		if !rateLimiter.Allow(ip) {
			log.Printf("[server] rate limit exceeded for %s", ip)
			resp := new(dns.Msg)
			resp.SetRcode(req, dns.RcodeRefused)
			w.WriteMsg(resp)
			return
		}

		go func() {
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			resp := query.Answer(az, req)
			m.RecordQuery(outcomeLabel(resp))
			w.WriteMsg(resp)
		}()
	})

	var wg sync.WaitGroup

	packetConn, err := net.ListenPacket("udp", config.ListenAddr)
	if err != nil {
		log.Fatalf("[main] failed to create UDP listener: %v", err)
	}
	listener, err := net.Listen("tcp", config.ListenAddr)
	if err != nil {
		log.Fatalf("[main] failed to create TCP listener: %v", err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		srv := &dns.Server{PacketConn: packetConn, UDPSize: 65535}
		if err := srv.ActivateAndServe(); err != nil {
			log.Printf("[main] UDP server error: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		srv := &dns.Server{Listener: listener}
		if err := srv.ActivateAndServe(); err != nil {
			log.Printf("[main] TCP server error: %v", err)
		}
	}()

	log.Printf("[main] listening on %s (udp+tcp)", config.ListenAddr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Println("[main] shutting down")
	packetConn.Close()
	listener.Close()

	wg.Wait()
	log.Println("[main] stopped")
}

// loadZones reads the config file and builds the in-memory zone index
// from each configured zone file.
func loadZones(path string) (*zones.AuthoritativeZones, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	az := zones.New()
	m := metrics.New()
	loaded := 0
	for _, z := range cfg.Zones {
		it, err := reader.NewFileReaderIter(z.ZoneFile)
		if err != nil {
			return nil, err
		}
		it.SetOrigin(z.Name)
		if err := az.LoadZone(z.Name, dns.ClassINET, it); err != nil {
			m.IncrementScanErrors()
			return nil, err
		}
		loaded++
		log.Printf("[main] loaded zone %s from %s", z.Name, z.ZoneFile)
	}
	m.SetZonesLoaded(loaded)
	return az, nil
}

func outcomeLabel(resp *dns.Msg) string {
	switch resp.Rcode {
	case dns.RcodeFormatError:
		return metrics.OutcomeFormError
	case dns.RcodeRefused:
		return metrics.OutcomeRefused
	case dns.RcodeNameError:
		return metrics.OutcomeNXDomain
	}
	if len(resp.Ns) > 0 && len(resp.Answer) == 0 {
		if isReferral(resp) {
			return metrics.OutcomeReferral
		}
		return metrics.OutcomeNoData
	}
	return metrics.OutcomeAnswer
}

func isReferral(resp *dns.Msg) bool {
	for _, rr := range resp.Ns {
		if rr.Header().Rrtype == dns.TypeNS {
			return true
		}
	}
	return false
}
