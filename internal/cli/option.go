package cli

// Options is the root command. The struct tags are interpreted by
// github.com/jessevdk/go-flags. Sub-commands are optional; none means run.
type Options struct {
	URL     string `short:"u" long:"url" description:"override the chat app base URL; traffic goes to the local app at http://localhost:3000 unless this or $VOICEDOC_BASE_URL is set"`
	Verbose bool   `short:"v" long:"verbose" description:"log per-request diagnostics to stderr"`
	Version bool   `long:"version" description:"print version and exit"`

	Run      RunCmd      `command:"run" description:"Send the scripted traffic sequence (default)"`
	Plan     PlanCmd     `command:"plan" description:"Print the scripted sequence as YAML without sending it"`
	Describe DescribeCmd `command:"describe" description:"Check that the chat endpoint answers GET"`
}

// RunCmd sends the fixed warm-up, persona sweep, burst and forced-error sequence.
type RunCmd struct{}

// PlanCmd prints the fixed sequence.
type PlanCmd struct{}

// DescribeCmd fetches the chat endpoint descriptor.
type DescribeCmd struct{}
