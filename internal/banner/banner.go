package banner

import (
	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
)

func PrintBanner() {
	myFigure := figure.NewColorFigure("AFHUNTER", "doom", "red", true)
	myFigure.Print()

	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	_, _ = cyan.Println("════════════════════════════════════════════════")
	_, _ = green.Println("    OAuth Flow Verifier | Author: https://github.com/selimozcann")
	_, _ = cyan.Println("════════════════════════════════════════════════")
}
