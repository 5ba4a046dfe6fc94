package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash       Shell = "bash"
	ShellZsh        Shell = "zsh"
	ShellFish       Shell = "fish"
	ShellPowerShell Shell = "powershell"
)

var supportedShells = []Shell{ShellBash, ShellZsh, ShellFish, ShellPowerShell}

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = errors.New("unsupported shell")

// flagType represents the completion type for a flag.
type flagType int

const (
	flagString flagType = iota // default
	flagBool
	flagInt
	flagFloat
	flagEnum // has predefined values
	flagFile // file with glob pattern
	flagDir  // directory
)

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long     string   // --output
	Short    string   // -o (empty if none)
	Type     flagType // completion type
	Desc     string   // help text
	Values   []string // for enum flags
	FileGlob string   // for file flags
}

// takesValue reports whether the flag consumes the next argument.
func (fd flagDef) takesValue() bool {
	return fd.Type != flagBool
}

// names returns the flag spellings, long first.
func (fd flagDef) names() []string {
	names := []string{"--" + fd.Long}
	if fd.Short != "" {
		names = append(names, "-"+fd.Short)
	}
	return names
}

// commandDef describes a command for completion.
type commandDef struct {
	Name        string
	Desc        string
	Flags       []flagDef
	TakesFiles  bool   // accepts file arguments
	FilePattern string // glob for file arguments (e.g., "*.md")
	Args        []string
}

// completionMeta holds completion hints the FlagSet cannot express.
type completionMeta struct {
	Values   []string // enum values
	FileGlob string   // file glob pattern
	IsDir    bool     // directory completion
}

// flagCompletionMeta maps flag names to their completion metadata.
var flagCompletionMeta = map[string]completionMeta{
	"page-size":   {Values: []string{"a3", "a4", "a5", "letter", "legal"}},
	"orientation": {Values: []string{"portrait", "landscape"}},
	"config":      {FileGlob: "*.yaml,*.yml"},
	"output":      {IsDir: true},
}

// extractFlagsFromFlagSet extracts flag definitions from a pflag.FlagSet,
// enriched with flagCompletionMeta.
func extractFlagsFromFlagSet(fs *flag.FlagSet) []flagDef {
	var flags []flagDef

	fs.VisitAll(func(f *flag.Flag) {
		fd := flagDef{
			Long:  f.Name,
			Short: f.Shorthand,
			Desc:  f.Usage,
		}

		switch f.Value.Type() {
		case "bool":
			fd.Type = flagBool
		case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64":
			fd.Type = flagInt
		case "float32", "float64":
			fd.Type = flagFloat
		default:
			fd.Type = flagString
		}

		if meta, ok := flagCompletionMeta[f.Name]; ok {
			switch {
			case len(meta.Values) > 0:
				fd.Type = flagEnum
				fd.Values = meta.Values
			case meta.FileGlob != "":
				fd.Type = flagFile
				fd.FileGlob = meta.FileGlob
			case meta.IsDir:
				fd.Type = flagDir
			}
		}

		flags = append(flags, fd)
	})

	return flags
}

// getCommands returns the command registry for completion. Flags come from
// the FlagSets the commands parse with.
func getCommands() []commandDef {
	names := []string{"convert", "config", "doctor", "version", "help", "completion"}
	shells := make([]string, len(supportedShells))
	for i, s := range supportedShells {
		shells[i] = string(s)
	}

	return []commandDef{
		{
			Name:        "convert",
			Desc:        "Convert markdown files to PDF",
			Flags:       extractFlagsFromFlagSet(newConvertFlagSet(&convertFlags{})),
			TakesFiles:  true,
			FilePattern: "*.md,*.markdown",
		},
		{Name: "config", Desc: "Print the default configuration as YAML"},
		{
			Name:  "doctor",
			Desc:  "Check the system is ready to convert",
			Flags: extractFlagsFromFlagSet(newDoctorFlagSet(&doctorFlags{})),
		},
		{Name: "version", Desc: "Show version information"},
		{Name: "help", Desc: "Show help for a command", Args: names},
		{Name: "completion", Desc: "Generate shell completion script", Args: shells},
	}
}

// GenerateCompletion writes the completion script for shell to w.
func GenerateCompletion(w io.Writer, shell Shell) error {
	var b strings.Builder
	cmds := getCommands()

	switch shell {
	case ShellBash:
		generateBash(&b, cmds)
	case ShellZsh:
		generateZsh(&b, cmds)
	case ShellFish:
		generateFish(&b, cmds)
	case ShellPowerShell:
		generatePowerShell(&b, cmds)
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish, powershell)", ErrUnsupportedShell, shell)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// runCompletion handles the completion command.
func runCompletion(args []string, env *Environment) error {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return nil
	}
	return GenerateCompletion(env.Stdout, Shell(args[0]))
}

// runCompletionCmd runs the completion command and returns an exit code.
func runCompletionCmd(args []string, env *Environment) int {
	if err := runCompletion(args, env); err != nil {
		printError(env.Stderr, err)
		return ExitUsage
	}
	return ExitSuccess
}

// ---------------------------------------------------------------------------
// Bash
// ---------------------------------------------------------------------------

func generateBash(b *strings.Builder, cmds []commandDef) {
	b.WriteString("# bash completion for mdblocks\n")
	b.WriteString("_mdblocks_completions() {\n")
	b.WriteString("    local cur prev cmd\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    cmd=\"${COMP_WORDS[1]}\"\n\n")

	b.WriteString("    if [[ ${COMP_CWORD} -eq 1 ]]; then\n")
	fmt.Fprintf(b, "        COMPREPLY=($(compgen -W %q -- \"${cur}\") %s)\n",
		strings.Join(commandNames(cmds), " "), bashFiles("*.md,*.markdown"))
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")

	b.WriteString("    case \"${cmd}\" in\n")
	for _, c := range cmds {
		if len(c.Flags) == 0 && len(c.Args) == 0 && !c.TakesFiles {
			continue
		}
		fmt.Fprintf(b, "    %s)\n", c.Name)
		if len(c.Flags) > 0 {
			b.WriteString("        case \"${prev}\" in\n")
			for _, fd := range c.Flags {
				if !fd.takesValue() {
					continue
				}
				fmt.Fprintf(b, "        %s)\n", strings.Join(fd.names(), "|"))
				switch fd.Type {
				case flagEnum:
					fmt.Fprintf(b, "            COMPREPLY=($(compgen -W %q -- \"${cur}\"))\n", strings.Join(fd.Values, " "))
				case flagFile:
					fmt.Fprintf(b, "            COMPREPLY=(%s)\n", bashFiles(fd.FileGlob))
				case flagDir:
					b.WriteString("            COMPREPLY=($(compgen -d -- \"${cur}\"))\n")
				}
				b.WriteString("            return\n")
				b.WriteString("            ;;\n")
			}
			b.WriteString("        esac\n")
			b.WriteString("        if [[ ${cur} == -* ]]; then\n")
			fmt.Fprintf(b, "            COMPREPLY=($(compgen -W %q -- \"${cur}\"))\n", strings.Join(flagNames(c.Flags), " "))
			b.WriteString("            return\n")
			b.WriteString("        fi\n")
		}
		switch {
		case c.TakesFiles:
			fmt.Fprintf(b, "        COMPREPLY=(%s)\n", bashFiles(c.FilePattern))
		case len(c.Args) > 0:
			fmt.Fprintf(b, "        COMPREPLY=($(compgen -W %q -- \"${cur}\"))\n", strings.Join(c.Args, " "))
		}
		b.WriteString("        ;;\n")
	}
	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("complete -F _mdblocks_completions mdblocks\n")
}

// bashFiles returns compgen calls matching the comma separated globs and
// every directory.
func bashFiles(globs string) string {
	var parts []string
	for _, g := range strings.Split(globs, ",") {
		parts = append(parts, fmt.Sprintf("$(compgen -f -X '!%s' -- \"${cur}\")", g))
	}
	parts = append(parts, "$(compgen -d -- \"${cur}\")")
	return strings.Join(parts, " ")
}

// ---------------------------------------------------------------------------
// Zsh
// ---------------------------------------------------------------------------

func generateZsh(b *strings.Builder, cmds []commandDef) {
	b.WriteString("#compdef mdblocks\n\n")
	b.WriteString("_mdblocks() {\n")
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(b, "        '%s:%s'\n", c.Name, zshQuote(c.Desc))
	}
	b.WriteString("    )\n\n")

	b.WriteString("    if (( CURRENT == 2 )); then\n")
	b.WriteString("        _describe 'command' commands\n")
	fmt.Fprintf(b, "        _files -g '%s'\n", zshGlob("*.md,*.markdown"))
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")

	b.WriteString("    case \"${words[2]}\" in\n")
	for _, c := range cmds {
		if len(c.Flags) == 0 && len(c.Args) == 0 && !c.TakesFiles {
			continue
		}
		specs := []string{"_arguments -s"}
		for _, fd := range c.Flags {
			specs = append(specs, zshFlagSpec(fd))
		}
		switch {
		case c.TakesFiles:
			specs = append(specs, fmt.Sprintf("'*:file:_files -g \"%s\"'", zshGlob(c.FilePattern)))
		case len(c.Args) > 0:
			specs = append(specs, fmt.Sprintf("'1:argument:(%s)'", strings.Join(c.Args, " ")))
		}
		fmt.Fprintf(b, "    %s)\n", c.Name)
		fmt.Fprintf(b, "        %s\n", strings.Join(specs, " \\\n            "))
		b.WriteString("        ;;\n")
	}
	b.WriteString("    esac\n")
	b.WriteString("}\n\n")

	b.WriteString("if [ \"$funcstack[1]\" = \"_mdblocks\" ]; then\n")
	b.WriteString("    _mdblocks \"$@\"\n")
	b.WriteString("else\n")
	b.WriteString("    compdef _mdblocks mdblocks\n")
	b.WriteString("fi\n")
}

// zshFlagSpec returns the _arguments optspec of fd.
func zshFlagSpec(fd flagDef) string {
	desc := zshQuote(fd.Desc)
	action := ""
	switch fd.Type {
	case flagBool:
	case flagEnum:
		action = ":value:(" + strings.Join(fd.Values, " ") + ")"
	case flagFile:
		action = ":file:_files -g \"" + zshGlob(fd.FileGlob) + "\""
	case flagDir:
		action = ":directory:_files -/"
	default:
		action = ":value: "
	}

	if fd.Short == "" {
		return fmt.Sprintf("'--%s[%s]%s'", fd.Long, desc, action)
	}
	return fmt.Sprintf("'(-%s --%s)'{-%s,--%s}'[%s]%s'", fd.Short, fd.Long, fd.Short, fd.Long, desc, action)
}

// zshGlob turns "*.md,*.markdown" into "*.(md|markdown)".
func zshGlob(globs string) string {
	var exts []string
	for _, g := range strings.Split(globs, ",") {
		exts = append(exts, strings.TrimPrefix(g, "*."))
	}
	return "*.(" + strings.Join(exts, "|") + ")"
}

var zshReplacer = strings.NewReplacer("'", `'\''`, "[", `\[`, "]", `\]`)

// zshQuote escapes s for a single quoted _arguments description.
func zshQuote(s string) string {
	return zshReplacer.Replace(s)
}

// ---------------------------------------------------------------------------
// Fish
// ---------------------------------------------------------------------------

func generateFish(b *strings.Builder, cmds []commandDef) {
	b.WriteString("# fish completion for mdblocks\n\n")
	b.WriteString("function __fish_mdblocks_needs_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -eq 1\n")
	b.WriteString("end\n\n")
	b.WriteString("function __fish_mdblocks_using_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -gt 1; and test $cmd[2] = $argv[1]\n")
	b.WriteString("end\n\n")

	b.WriteString("complete -c mdblocks -f\n")
	for _, c := range cmds {
		fmt.Fprintf(b, "complete -c mdblocks -n __fish_mdblocks_needs_command -a %s -d '%s'\n", c.Name, fishQuote(c.Desc))
	}
	b.WriteString("complete -c mdblocks -n __fish_mdblocks_needs_command -a '(__fish_complete_suffix .md)'\n")

	for _, c := range cmds {
		cond := fmt.Sprintf("'__fish_mdblocks_using_command %s'", c.Name)
		for _, fd := range c.Flags {
			fmt.Fprintf(b, "complete -c mdblocks -n %s -l %s", cond, fd.Long)
			if fd.Short != "" {
				fmt.Fprintf(b, " -s %s", fd.Short)
			}
			switch fd.Type {
			case flagBool:
			case flagEnum:
				fmt.Fprintf(b, " -x -a '%s'", strings.Join(fd.Values, " "))
			case flagFile:
				fmt.Fprintf(b, " -x -a '%s'", fishSuffixes(fd.FileGlob))
			case flagDir:
				b.WriteString(" -x -a '(__fish_complete_directories)'")
			default:
				b.WriteString(" -x")
			}
			fmt.Fprintf(b, " -d '%s'\n", fishQuote(fd.Desc))
		}
		switch {
		case c.TakesFiles:
			fmt.Fprintf(b, "complete -c mdblocks -n %s -a '%s'\n", cond, fishSuffixes(c.FilePattern))
		case len(c.Args) > 0:
			fmt.Fprintf(b, "complete -c mdblocks -n %s -a '%s'\n", cond, strings.Join(c.Args, " "))
		}
	}
}

// fishSuffixes returns __fish_complete_suffix calls for the globs.
func fishSuffixes(globs string) string {
	var parts []string
	for _, g := range strings.Split(globs, ",") {
		parts = append(parts, "(__fish_complete_suffix "+strings.TrimPrefix(g, "*")+")")
	}
	return strings.Join(parts, " ")
}

var fishReplacer = strings.NewReplacer(`\`, `\\`, "'", `\'`)

// fishQuote escapes s for a single quoted fish string.
func fishQuote(s string) string {
	return fishReplacer.Replace(s)
}

// ---------------------------------------------------------------------------
// PowerShell
// ---------------------------------------------------------------------------

func generatePowerShell(b *strings.Builder, cmds []commandDef) {
	b.WriteString("# powershell completion for mdblocks\n")
	b.WriteString("Register-ArgumentCompleter -Native -CommandName mdblocks -ScriptBlock {\n")
	b.WriteString("    param($wordToComplete, $commandAst, $cursorPosition)\n\n")

	b.WriteString("    $commands = [ordered]@{\n")
	for _, c := range cmds {
		fmt.Fprintf(b, "        '%s' = '%s'\n", c.Name, psQuote(c.Desc))
	}
	b.WriteString("    }\n")

	b.WriteString("    $flags = @{\n")
	for _, c := range cmds {
		if len(c.Flags) == 0 {
			continue
		}
		fmt.Fprintf(b, "        '%s' = @(%s)\n", c.Name, psList(flagNames(c.Flags)))
	}
	b.WriteString("    }\n")

	b.WriteString("    $values = @{\n")
	for _, c := range cmds {
		for _, fd := range c.Flags {
			if fd.Type != flagEnum {
				continue
			}
			for _, name := range fd.names() {
				fmt.Fprintf(b, "        '%s' = @(%s)\n", name, psList(fd.Values))
			}
		}
	}
	b.WriteString("    }\n")

	b.WriteString("    $arguments = @{\n")
	for _, c := range cmds {
		if len(c.Args) == 0 {
			continue
		}
		fmt.Fprintf(b, "        '%s' = @(%s)\n", c.Name, psList(c.Args))
	}
	b.WriteString("    }\n\n")

	b.WriteString(`    $elements = @($commandAst.CommandElements | ForEach-Object { $_.ToString() })
    if ($elements.Count -lt 2 -or ($elements.Count -eq 2 -and $wordToComplete -ne '')) {
        $commands.GetEnumerator() | Where-Object { $_.Key -like "$wordToComplete*" } | ForEach-Object {
            [System.Management.Automation.CompletionResult]::new($_.Key, $_.Key, 'ParameterValue', $_.Value)
        }
        return
    }

    $command = $elements[1]
    $previous = if ($wordToComplete -eq '') { $elements[-1] } else { $elements[-2] }
    $candidates = @()
    $kind = 'ParameterValue'
    if ($values.ContainsKey($previous)) {
        $candidates = $values[$previous]
    } elseif ($wordToComplete -like '-*' -and $flags.ContainsKey($command)) {
        $candidates = $flags[$command]
        $kind = 'ParameterName'
    } elseif ($arguments.ContainsKey($command)) {
        $candidates = $arguments[$command]
    }
    $candidates | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
        [System.Management.Automation.CompletionResult]::new($_, $_, $kind, $_)
    }
}
`)
}

// psList renders items as a PowerShell array body.
func psList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + psQuote(s) + "'"
	}
	return strings.Join(quoted, ", ")
}

// psQuote escapes s for a single quoted PowerShell string.
func psQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// ---------------------------------------------------------------------------
// Shared
// ---------------------------------------------------------------------------

func commandNames(cmds []commandDef) []string {
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	return names
}

func flagNames(flags []flagDef) []string {
	var names []string
	for _, fd := range flags {
		names = append(names, fd.names()...)
	}
	return names
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdblocks completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate shell completion script for the specified shell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported shells:")
	fmt.Fprintln(w, "  bash        Bash completion script")
	fmt.Fprintln(w, "  zsh         Zsh completion script")
	fmt.Fprintln(w, "  fish        Fish completion script")
	fmt.Fprintln(w, "  powershell  PowerShell completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Bash:")
	fmt.Fprintln(w, "    # Add to ~/.bashrc:")
	fmt.Fprintln(w, "    eval \"$(mdblocks completion bash)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Zsh:")
	fmt.Fprintln(w, "    # Add to ~/.zshrc (after compinit):")
	fmt.Fprintln(w, "    eval \"$(mdblocks completion zsh)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Fish:")
	fmt.Fprintln(w, "    mdblocks completion fish > ~/.config/fish/completions/mdblocks.fish")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  PowerShell:")
	fmt.Fprintln(w, "    # Add to $PROFILE:")
	fmt.Fprintln(w, "    mdblocks completion powershell | Out-String | Invoke-Expression")
}
