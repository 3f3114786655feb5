package supervisor

import (
	"fmt"
	"strings"
)

// The control channel is the first entry of exec.Cmd.ExtraFiles
const ChannelFD = 3

// EtcDirEnvVar tells hooks where persisted service state lives
const EtcDirEnvVar = "SERVICE_ETC_DIR"

// helperFunctions returns bash exported function definitions that let a hook write to the
// control channel without knowing its descriptor:
//
//	tool_stage TEXT   new stage
//	tool_set K=V      report a fact
//	tool_err MSG      non-fatal error
//	tool_bg CMD...    detach CMD in a new session with channel and stdio closed
//
// Called without arguments, the reporting helpers prefix every line read from stdin.
func helperFunctions(fd int) map[string]string {
	return map[string]string{
		"tool_comms": fmt.Sprintf(`() { local msg=$1
 shift
 if [ "$1" ]; then
 echo "${msg}:$*" 1>&%[1]d;
 else
 cat | sed "s/^/${msg}:/g" 1>&%[1]d;
 fi
}`, fd),
		"tool_err":    "() { tool_comms ERR \"$@\"\n}",
		"tool_stage":  "() { tool_comms STAGE \"$@\"\n}",
		"tool_set":    "() { tool_comms SET \"$@\"\n}",
		"tool_fileno": fmt.Sprintf("() { echo %d\n}", fd),
		"tool_bg":     fmt.Sprintf("() { setsid \"$@\" %d>&- </dev/null &>/dev/null &\n}", fd),
	}
}

// helperEnviron renders helperFunctions in the BASH_FUNC_<name>%% import format
func helperEnviron(fd int) []string {
	funcs := helperFunctions(fd)
	env := make([]string, 0, len(funcs))
	for _, name := range []string{"tool_comms", "tool_err", "tool_stage", "tool_set", "tool_fileno", "tool_bg"} {
		env = append(env, "BASH_FUNC_"+name+"%%="+funcs[name])
	}
	return env
}

func isHelperEnv(entry string) bool {
	return strings.HasPrefix(entry, "BASH_FUNC_tool_")
}
