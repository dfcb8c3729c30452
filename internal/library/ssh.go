package library

import (
	"fmt"
	"net"
	"os"
	"os/user"
	"strings"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// fetchRemoteDatabase copies the library database from a user@host:/path
// spec to a local temp file over SSH. Returns the temp path and a cleanup
// func that removes it.
func fetchRemoteDatabase(spec string) (string, func() error, error) {
	userName, host, remotePath, err := parseSSHPath(spec)
	if err != nil {
		return "", nil, err
	}

	auth, closeAgent, err := agentAuth()
	if err != nil {
		return "", nil, err
	}
	defer closeAgent()

	client, err := ssh.Dial("tcp", net.JoinHostPort(host, "22"), &ssh.ClientConfig{
		User: userName,
		Auth: []ssh.AuthMethod{auth},
		// Host keys are not checked; the library host is on the local network.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	})
	if err != nil {
		return "", nil, fmt.Errorf("ssh connect to %s: %w", host, err)
	}
	defer client.Close()

	dbPath := remotePath
	if !strings.HasSuffix(remotePath, ".db") {
		// A .musiclibrary bundle: locate the database file inside it.
		dbPath, err = remoteFindDatabase(client, remotePath)
		if err != nil {
			return "", nil, err
		}
	}

	tmp, err := os.CreateTemp("", "autoplex_music_library_*.db")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp database copy: %w", err)
	}

	session, err := client.NewSession()
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("opening ssh session: %w", err)
	}
	defer session.Close()

	session.Stdout = tmp
	if err := session.Run(fmt.Sprintf("cat %s", shellQuote(dbPath))); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("copying remote database %s: %w", dbPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, err
	}

	name := tmp.Name()
	return name, func() error { return os.Remove(name) }, nil
}

func remoteFindDatabase(client *ssh.Client, bundlePath string) (string, error) {
	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("opening ssh session: %w", err)
	}
	defer session.Close()

	out, err := session.Output(fmt.Sprintf("find %s -name '*.db' | grep -i Library", shellQuote(bundlePath)))
	if err != nil {
		return "", fmt.Errorf("locating database under %s: %w", bundlePath, err)
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return "", fmt.Errorf("no library database found under %s", bundlePath)
	}
	return lines[0], nil
}

func parseSSHPath(spec string) (userName, host, remotePath string, err error) {
	rest := spec
	if at := strings.Index(spec, "@"); at != -1 {
		userName, rest = spec[:at], spec[at+1:]
	} else {
		u, uerr := user.Current()
		if uerr != nil {
			return "", "", "", fmt.Errorf("resolving current user for ssh: %w", uerr)
		}
		userName = u.Username
	}
	host, remotePath, ok := strings.Cut(rest, ":")
	if !ok || host == "" || remotePath == "" {
		return "", "", "", fmt.Errorf("invalid ssh library path %q, want user@host:/path", spec)
	}
	return userName, host, remotePath, nil
}

// agentAuth authenticates with the running ssh-agent, the same keys the
// operator already uses to reach the machine hosting the library.
func agentAuth() (ssh.AuthMethod, func(), error) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, nil, fmt.Errorf("SSH_AUTH_SOCK is unset; an ssh-agent is required for remote library paths")
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to ssh-agent: %w", err)
	}
	return ssh.PublicKeysCallback(agent.NewClient(conn).Signers), func() { conn.Close() }, nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
