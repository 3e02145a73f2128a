// Command cherry-console is a raw terminal for a cherry board's UART.
//
// Keystrokes go to the board unmodified and everything the board sends is
// written to the terminal. Ctrl-] quits.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"unicode/utf8"

	tty "github.com/mattn/go-tty"

	"cherry/host/serial"
)

const escape = 0x1d // Ctrl-]

var (
	device  = flag.String("device", "/dev/ttyUSB0", "Serial device path")
	baud    = flag.Int("baud", 115200, "Baud rate")
	format  = flag.String("format", "8N1", "Character format: data bits, parity (N/E/O), stop bits")
	list    = flag.Bool("list", false, "List serial ports and exit")
	verbose = flag.Bool("verbose", false, "Log port activity")
)

func main() {
	flag.Parse()
	log.SetFlags(0)
	log.SetPrefix("cherry-console: ")

	if *list {
		if err := listPorts(os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}

	framing, err := serial.ParseFraming(*format)
	if err != nil {
		log.Fatal(err)
	}
	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	cfg.Framing = framing

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func listPorts(w io.Writer) error {
	ports, err := serial.List()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Fprintln(w, "no serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Fprintln(w, p)
	}
	return nil
}

func run(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return err
	}
	defer port.Close()
	if err := port.Flush(); err != nil && *verbose {
		log.Printf("flush: %v", err)
	}

	term, err := tty.Open()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	defer term.Close()

	restore, err := term.Raw()
	if err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}
	defer restore()

	fmt.Fprintf(term.Output(), "connected to %s at %d %s, Ctrl-] to quit\r\n",
		cfg.Device, cfg.Baud, cfg.Framing)

	go pump(term.Output(), port)
	return forward(port, term)
}

// pump copies board output to the terminal until the port fails.
func pump(w io.Writer, port serial.Port) {
	buf := make([]byte, 256)
	for {
		n, err := port.Read(buf)
		if n > 0 {
			w.Write(buf[:n])
		}
		if err != nil && err != io.EOF {
			if *verbose {
				log.Printf("read: %v", err)
			}
			return
		}
	}
}

type runeReader interface {
	ReadRune() (rune, error)
}

// forward sends keystrokes to the board until the escape key.
func forward(w io.Writer, in runeReader) error {
	var buf [utf8.UTFMax]byte
	for {
		r, err := in.ReadRune()
		if err != nil {
			return fmt.Errorf("read terminal: %w", err)
		}
		if r == escape {
			return nil
		}
		n := utf8.EncodeRune(buf[:], r)
		if _, err := w.Write(buf[:n]); err != nil {
			return fmt.Errorf("write port: %w", err)
		}
	}
}
