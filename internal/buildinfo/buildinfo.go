package buildinfo

const Graffiti = " _____  ______  _____ \n|  _  \\ | ___ \\/  ___|\n| | | | | |_/ /\\ `--. \n| | | | | ___ \\ `--. \\\n| |/ /  | |_/ //\\__/ /\n|___/   \\____/ \\____/ \n\n"

var (
	BuildTag string = "v0.0.0"
	Name     string = "DBS"
	Time     string = ""
)

type buildinfo struct{}

func (buildinfo) Tag() string {
	return BuildTag
}

func (buildinfo) Name() string {
	return Name
}

func (buildinfo) Time() string {
	return Time
}

var Info buildinfo
