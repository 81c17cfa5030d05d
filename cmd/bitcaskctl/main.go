package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"

	shellquote "github.com/kballard/go-shellquote"

	"bitcask"
)

func main() {
	dir := flag.String("db", "./data", "database directory")
	maxFileSize := flag.Int64("max-file-size", bitcask.DefaultMaxFileSize, "active file size, in bytes, before rotation")
	flag.Parse()

	db, err := bitcask.Open(*dir, bitcask.WithMaxFileSize(*maxFileSize))
	if err != nil {
		fmt.Fprintln(os.Stderr, "bitcaskctl:", err)
		os.Exit(1)
	}
	defer db.Close()

	args := flag.Args()
	if len(args) > 0 {
		if err := run(db, args); err != nil {
			fmt.Fprintln(os.Stderr, "bitcaskctl:", err)
			os.Exit(1)
		}
		return
	}

	repl(db)
}

// repl reads one command per line from stdin until EOF, tokenizing each
// line the way a shell would so values containing spaces can be quoted.
func repl(db *bitcask.DB) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		fields, err := shellquote.Split(line)
		if err != nil {
			fmt.Println("parse error:", err)
			continue
		}
		if len(fields) == 0 {
			continue
		}

		if err := run(db, fields); err != nil {
			fmt.Println(err)
		}
	}
}

func run(db *bitcask.DB, args []string) error {
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "set":
		if len(rest) != 2 {
			return fmt.Errorf("usage: set <key> <value>")
		}
		return db.Put([]byte(rest[0]), []byte(rest[1]))

	case "get":
		if len(rest) != 1 {
			return fmt.Errorf("usage: get <key>")
		}
		value, err := db.Get([]byte(rest[0]))
		if err != nil {
			if err == bitcask.ErrKeyNotFound {
				fmt.Println("(nil)")
				return nil
			}
			return err
		}
		fmt.Println(string(value))
		return nil

	case "del":
		if len(rest) != 1 {
			return fmt.Errorf("usage: del <key>")
		}
		return db.Delete([]byte(rest[0]))

	case "list":
		for _, key := range db.ListKeys() {
			fmt.Println(string(key))
		}
		return nil

	case "merge":
		return db.Merge()

	case "stats":
		s := db.Stats()
		fmt.Println("keys:", strconv.Itoa(s.KeyCount))
		fmt.Println("immutable files:", strconv.Itoa(s.ImmutableFiles))
		fmt.Println("active file size:", strconv.FormatInt(s.ActiveFileSize, 10))
		return nil

	default:
		return fmt.Errorf("unknown command %q (set, get, del, list, merge, stats)", cmd)
	}
}
