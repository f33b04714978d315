package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/user/ppkconvert/internal/convert"
	"github.com/user/ppkconvert/internal/output"
	"github.com/user/ppkconvert/internal/ppk"
	"github.com/user/ppkconvert/internal/server"
	"github.com/user/ppkconvert/pkg/hostinfo"
)

// PassphraseEnvVar lets scripts supply the passphrase without a terminal.
const PassphraseEnvVar = "PPK_PASSPHRASE"

var (
	passphrase    string
	outputFile    string
	outputDir     string
	toStdout      bool
	showProgress  bool
	verbose       bool
	inspectFormat string
	webPort       string
	webWorkers    int
)

var rootCmd = &cobra.Command{
	Use:   "ppkconvert",
	Short: "Convert PuTTY .ppk private keys to OpenSSH format",
	Long: `ppkconvert reads PuTTY's ".ppk" private key containers, decrypting
them with a passphrase when needed, and re-encodes the key material as
OpenSSH PEM private keys.

Only the two legacy key types are supported: ssh-rsa and ssh-dss.`,
}

var convertCmd = &cobra.Command{
	Use:   "convert <file>...",
	Short: "Convert one or more .ppk files to OpenSSH PEM",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runConvert,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>...",
	Short: "Show key metadata without converting",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInspect,
}

var detectCmd = &cobra.Command{
	Use:   "detect <file>...",
	Short: "Check whether files are PuTTY key containers",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDetect,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the conversion web API",
	RunE:  runServe,
}

func init() {
	convertCmd.Flags().StringVarP(&passphrase, "passphrase", "p", "", "Passphrase for encrypted keys (prompted when omitted)")
	convertCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (single input only)")
	convertCmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for converted keys")
	convertCmd.Flags().BoolVar(&toStdout, "stdout", false, "Write the converted key to stdout (single input only)")
	convertCmd.Flags().BoolVar(&showProgress, "progress", true, "Show progress bar for batches")
	convertCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", "table", "Output format (table, json, csv)")

	serveCmd.Flags().StringVar(&webPort, "port", "8080", "Web server port")
	serveCmd.Flags().IntVar(&webWorkers, "workers", 1, "Conversion workers for batch jobs")
	serveCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(convertCmd, inspectCmd, detectCmd, serveCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	if (outputFile != "" || toStdout) && len(args) > 1 {
		return fmt.Errorf("--output and --stdout only apply to a single input file")
	}

	pass, err := resolvePassphrase(args)
	if err != nil {
		return err
	}

	if toStdout || outputFile != "" {
		key, err := ppk.ParseFile(args[0], pass)
		if err != nil {
			return err
		}
		if toStdout {
			text, err := key.ToOpenSSH()
			if err != nil {
				return err
			}
			fmt.Print(text)
			return nil
		}
		return key.WriteOpenSSH(outputFile)
	}

	config := convert.Config{
		Files:        args,
		Passphrase:   pass,
		OutputDir:    outputDir,
		ShowProgress: showProgress && len(args) > 1,
		Verbose:      verbose,
	}

	failed := 0
	for _, result := range convert.NewRunner(config).Run() {
		if result.Err != "" {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %s\n", result.Source, result.Err)
		} else if !verbose {
			fmt.Printf("wrote %s\n", result.Output)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", failed, len(args))
	}
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	formatter, err := output.NewFormatter(inspectFormat)
	if err != nil {
		return fmt.Errorf("invalid output format: %w", err)
	}

	var keys []ppk.Info
	for _, file := range args {
		// No passphrase: Info only reads headers and the public blob.
		key, err := ppk.ParseFile(file, "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", file, err)
			continue
		}
		info := key.Info()
		info.Source = file
		keys = append(keys, info)
	}
	if len(keys) == 0 {
		return fmt.Errorf("no readable key files")
	}

	return formatter.Format(os.Stdout, output.Data{Keys: keys})
}

func runDetect(cmd *cobra.Command, args []string) error {
	misses := 0
	for _, file := range args {
		ok, err := ppk.IsPuTTYKeyFile(file)
		if err != nil {
			return err
		}
		if ok {
			fmt.Printf("%s: PuTTY key file\n", file)
		} else {
			misses++
			fmt.Printf("%s: not a PuTTY key file\n", file)
		}
	}
	if misses > 0 {
		return fmt.Errorf("%d of %d files did not match", misses, len(args))
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if verbose {
		host := hostinfo.Collect()
		fmt.Printf("Host: %s (%s/%s, %d cores, %s)\n",
			host.Hostname, host.OS, host.Arch, host.Cores, host.GoVersion)
	}

	srv := server.NewServerWithWorkers(webPort, webWorkers)
	return srv.Start()
}

// resolvePassphrase picks the passphrase from the flag, the environment, or
// an interactive prompt, but only prompts when some input actually needs one.
func resolvePassphrase(files []string) (string, error) {
	if passphrase != "" {
		return passphrase, nil
	}
	if envPass := os.Getenv(PassphraseEnvVar); envPass != "" {
		return envPass, nil
	}

	encrypted := false
	for _, file := range files {
		key, err := ppk.ParseFile(file, "")
		if err != nil {
			continue // reported during conversion
		}
		if key.Encrypted() {
			encrypted = true
			break
		}
	}
	if !encrypted {
		return "", nil
	}

	return promptPassphrase("Enter passphrase: ")
}

func promptPassphrase(prompt string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("stdin is not a terminal; set %s or use --passphrase", PassphraseEnvVar)
	}

	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pass), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
