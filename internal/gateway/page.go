package gateway

import (
	"html/template"
	"net/http"
)

// hostPage is a minimal page that mirrors the bridge's server-side widget.
// Clicks and keystrokes are translated into widget.* requests; every
// widget.render event replaces the host element's content.
var hostPage = template.Must(template.New("host").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body{font-family:system-ui,sans-serif;margin:0;min-height:100vh;background:#f5f5f5}
.matchat-container{position:fixed;z-index:9999}
.matchat-bottom-right{right:var(--matchat-position-distance,20px);bottom:var(--matchat-position-distance,20px)}
.matchat-bottom-left{left:var(--matchat-position-distance,20px);bottom:var(--matchat-position-distance,20px)}
.matchat-top-right{right:var(--matchat-position-distance,20px);top:var(--matchat-position-distance,20px)}
.matchat-top-left{left:var(--matchat-position-distance,20px);top:var(--matchat-position-distance,20px)}
.chat-button{width:56px;height:56px;border-radius:50%;border:0;background:var(--matchat-primary-color,#4a6cf7);color:#fff;cursor:pointer}
.chat-button.hidden{display:none}
.chat-popup{display:none;flex-direction:column;width:var(--matchat-width,350px);height:var(--matchat-height,500px);background:var(--matchat-white,#fff);border-radius:12px;box-shadow:0 4px 24px rgba(0,0,0,.15)}
.chat-popup.active{display:flex}
.chat-header{display:flex;align-items:center;gap:8px;padding:12px;background:var(--matchat-primary-color,#4a6cf7);color:#fff;border-radius:12px 12px 0 0}
.chat-header img{width:var(--matchat-avatar-size,32px);height:var(--matchat-avatar-size,32px);border-radius:50%}
.chat-header h3{flex:1;margin:0;font-size:16px}
.chat-messages{flex:1;overflow-y:auto;padding:12px}
.message{margin:6px 0;max-width:var(--matchat-message-max-width,80%);padding:8px 12px;border-radius:12px}
.user-message{margin-left:auto;background:var(--matchat-primary-color,#4a6cf7);color:#fff}
.bot-message{background:var(--matchat-secondary-color,#f0f2f5);color:var(--matchat-text-color,#333)}
.message-time{display:block;font-size:11px;opacity:.7}
.chat-input-container{padding:8px;border-top:1px solid #eee}
.input-wrapper{display:flex;gap:6px}
.input-wrapper input{flex:1}
.character-counter{font-size:11px;color:var(--matchat-light-text,#888)}
</style>
</head>
<body>
<div id="matchat-host"></div>
<script>
(function(){
  var host=document.getElementById("matchat-host");
  var params=new URLSearchParams(location.search);
  var ws=new WebSocket((location.protocol==="https:"?"wss://":"ws://")+location.host+"/ws");
  var seq=0,ready=false;
  function req(method,p){if(!ready)return;var id=(method==="widget.input"?"i":"r")+(++seq);ws.send(JSON.stringify({type:"req",id:id,method:method,params:p||{}}));}
  function render(html){
    host.innerHTML=html;
    var input=host.querySelector(".chat-popup.active .chat-input");
    if(input){input.focus();input.setSelectionRange(input.value.length,input.value.length);}
  }
  ws.onmessage=function(e){
    var f=JSON.parse(e.data);
    if(f.type==="event"&&f.event==="connect.challenge"){
      var auth=params.get("token")?{token:params.get("token")}:undefined;
      ws.send(JSON.stringify({type:"req",id:"connect",method:"connect",params:{minProtocol:1,maxProtocol:1,client:{id:"host-page",version:"1",platform:"web"},auth:auth}}));
      return;
    }
    if(f.type==="res"&&f.id==="connect"){
      if(!f.ok){host.textContent=f.error.message;return;}
      ready=true;render(f.payload.widget.html);return;
    }
    if(f.type==="event"&&f.event==="widget.render"){render(f.payload.html);return;}
    if(f.type==="res"&&f.ok&&f.id.charAt(0)==="r"&&f.payload&&f.payload.html!==undefined){render(f.payload.html);}
  };
  host.addEventListener("click",function(e){
    if(e.target.closest(".chat-button"))req("widget.open");
    else if(e.target.closest(".chat-close"))req("widget.close");
    else if(e.target.closest(".send-button"))req("widget.send");
  });
  host.addEventListener("input",function(e){
    if(e.target.classList.contains("chat-input"))req("widget.input",{text:e.target.value});
  });
  host.addEventListener("keydown",function(e){
    if(e.target.classList.contains("chat-input")&&e.key==="Enter"&&!e.shiftKey){e.preventDefault();req("widget.send",{text:e.target.value});}
  });
})();
</script>
</body>
</html>
`))

type pageData struct {
	Title string
}

// handlePage serves the host page.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := hostPage.Execute(w, pageData{Title: s.cfg.Widget.Title}); err != nil {
		s.log.Warn().Err(err).Msg("rendering host page failed")
	}
}
