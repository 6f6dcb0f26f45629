package toolchain

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// InstallInfo kurulum bilgisini tutar
type InstallInfo struct {
	ToolName    string
	Command     string
	Args        []string
	Description string
	ManualURL   string
	Supported   bool // Otomatik kurulum destekleniyor mu
}

// DetectPackageManager mevcut paket yöneticisini tespit eder
func DetectPackageManager() string {
	var managers []string
	switch runtime.GOOS {
	case "darwin":
		managers = []string{"brew"}
	case "linux":
		managers = []string{"apt", "dnf", "yum", "pacman"}
	case "windows":
		managers = []string{"choco", "winget"}
	}
	for _, pm := range managers {
		if _, err := exec.LookPath(pm); err == nil {
			return pm
		}
	}
	return ""
}

// GetInstallInfo belirli bir araç için kurulum bilgilerini döner.
// FFprobe FFmpeg paketiyle gelir.
func GetInstallInfo(toolName string) InstallInfo {
	switch strings.ToLower(toolName) {
	case "ffmpeg", "ffprobe":
		return ffmpegInstall(DetectPackageManager())
	}
	return InstallInfo{ToolName: toolName}
}

func ffmpegInstall(pm string) InstallInfo {
	info := InstallInfo{
		ToolName:    "FFmpeg",
		ManualURL:   "https://ffmpeg.org/download.html",
		Description: "https://ffmpeg.org/download.html",
	}

	var cmdline []string
	switch pm {
	case "brew":
		cmdline = []string{"brew", "install", "ffmpeg"}
	case "apt":
		cmdline = []string{"sudo", "apt", "install", "-y", "ffmpeg"}
	case "dnf":
		cmdline = []string{"sudo", "dnf", "install", "-y", "ffmpeg"}
	case "yum":
		cmdline = []string{"sudo", "yum", "install", "-y", "ffmpeg"}
	case "pacman":
		cmdline = []string{"sudo", "pacman", "-S", "--noconfirm", "ffmpeg"}
	case "choco":
		cmdline = []string{"choco", "install", "ffmpeg", "-y"}
	case "winget":
		cmdline = []string{"winget", "install", "Gyan.FFmpeg"}
	default:
		return info
	}

	info.Command = cmdline[0]
	info.Args = cmdline[1:]
	info.Description = strings.Join(cmdline, " ")
	info.Supported = true
	return info
}

// InstallTool aracı paket yöneticisiyle kurar
func InstallTool(toolName string) (string, error) {
	info := GetInstallInfo(toolName)
	if !info.Supported {
		return "", fmt.Errorf(
			"%s otomatik olarak kurulamıyor.\nManuel kurulum: %s",
			info.ToolName, info.ManualURL,
		)
	}

	cmd := exec.Command(info.Command, info.Args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s kurulumu başarısız: %w", info.ToolName, err)
	}
	return info.Description, nil
}
