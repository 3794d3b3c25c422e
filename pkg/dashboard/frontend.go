package dashboard

import "net/http"

func (d *Dashboard) serveFrontend(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(frontendHTML))
}

const frontendHTML = `<!DOCTYPE html>
<html lang="en"><head>
<meta charset="utf-8"><meta name="viewport" content="width=device-width,initial-scale=1">
<title>IoT Chain Dashboard</title>
<style>
:root{--bg:#0b1120;--sf:#111827;--sf2:#1f2937;--bd:#334155;--tx:#e2e8f0;--tx2:#94a3b8;--ac:#2dd4bf;--gn:#34d399;--rd:#f87171;--yl:#facc15;--bl:#60a5fa;--pr:#c084fc;--or:#fbbf24}
*{margin:0;padding:0;box-sizing:border-box}
body{font-family:system-ui,sans-serif;background:var(--bg);color:var(--tx);min-height:100vh}
.auth{display:flex;align-items:center;justify-content:center;min-height:100vh}
.card{background:var(--sf);border:1px solid var(--bd);border-radius:14px;padding:28px;width:380px}
.card h2{font-size:20px;margin-bottom:4px}.card p{color:var(--tx2);font-size:12px;margin-bottom:18px}
.fg{margin-bottom:12px}.fg input{width:100%;padding:10px 12px;background:var(--sf2);border:1px solid var(--bd);border-radius:8px;color:var(--tx)}
.btn{padding:10px 16px;border:none;border-radius:8px;background:var(--ac);color:#0b1120;font-weight:600;cursor:pointer}
.btn:disabled{opacity:.5}.lnk{background:0;border:0;color:var(--ac);cursor:pointer;font-size:12px;margin-top:12px}
.shell{display:flex;min-height:100vh}
.side{width:220px;background:var(--sf);border-right:1px solid var(--bd);padding:18px}
.side h1{font-size:18px;color:var(--ac)}.side small{color:var(--tx2)}
.nav{display:block;width:100%;text-align:left;padding:9px 12px;margin-top:6px;border:0;border-radius:8px;background:0;color:var(--tx);cursor:pointer}
.nav.on{background:var(--ac);color:#0b1120;font-weight:600}
.main{flex:1;display:flex;flex-direction:column}
.hdr{display:flex;justify-content:space-between;align-items:center;padding:14px 22px;border-bottom:1px solid var(--bd)}
.body{flex:1;padding:22px}
.grid{display:grid;grid-template-columns:repeat(auto-fit,minmax(180px,1fr));gap:14px;margin-bottom:20px}
.st{background:var(--sf);border:1px solid var(--bd);border-radius:12px;padding:14px}
.st .l{font-size:11px;color:var(--tx2)}.st .v{font-size:24px;font-weight:700;margin:4px 0}
.up{color:var(--gn);font-size:11px}.dn{color:var(--rd);font-size:11px}
.tone-emerald{border-color:var(--gn)}.tone-blue{border-color:var(--bl)}.tone-purple{border-color:var(--pr)}.tone-teal{border-color:var(--ac)}
.warn{border:1px solid var(--or);color:var(--or);border-radius:10px;padding:10px 14px;margin-bottom:14px;font-size:13px}
table{width:100%;border-collapse:collapse;background:var(--sf);border-radius:12px;overflow:hidden}
th{text-align:left;font-size:11px;color:var(--tx2);padding:10px 12px;border-bottom:1px solid var(--bd)}
td{padding:10px 12px;border-bottom:1px solid var(--sf2);font-size:13px}
.mono{font-family:monospace}.ok{color:var(--gn)}
.dot{display:inline-block;width:9px;height:9px;border-radius:50%;margin-right:8px}
.High{background:var(--rd)}.Medium{background:var(--yl)}.Low{background:var(--gn)}
.seg button{padding:6px 12px;margin-right:4px;border:1px solid var(--bd);border-radius:6px;background:var(--sf2);color:var(--tx);cursor:pointer}
.seg button.on{background:var(--ac);color:#0b1120}
.ftr{border-top:1px solid var(--bd);padding:10px 22px;color:var(--tx2);font-size:12px;overflow:hidden;white-space:nowrap}
.mq{display:inline-block;animation:mq 25s linear infinite}@keyframes mq{from{transform:translateX(100%)}to{transform:translateX(-100%)}}
</style>
<script src="https://unpkg.com/react@17/umd/react.production.min.js"></script>
<script src="https://unpkg.com/react-dom@17/umd/react-dom.production.min.js"></script>
<script src="https://unpkg.com/@babel/standalone/babel.min.js"></script>
</head><body><div id="root"></div>
<script type="text/babel">
const{useState,useEffect}=React;
const post=async(p,b)=>{const r=await fetch(p,{method:'POST',headers:{'Content-Type':'application/json'},body:JSON.stringify(b||{})});const d=await r.json();if(!r.ok)throw new Error(d.error||r.statusText);return d};
const fmt=n=>Number(n).toLocaleString('en-US');
const ts=s=>new Date(s).toLocaleString();
const PAGES=[['home','Dashboard'],['history','History'],['blockchain','Blockchain'],['ai','AI Analysis']];
const WEEKS=[1,2,3,4,6,8],MONTHS=[1,2,3,6,9,12];

function App(){
  const[st,setSt]=useState(null);const[ov,sOv]=useState(null);
  const sSt=n=>setSt(p=>!p||n.version>=p.version?n:p);
  useEffect(()=>{
    fetch('/api/state').then(r=>r.json()).then(sSt);
    fetch('/api/overview').then(r=>r.json()).then(sOv);
    let ws,t;const open=()=>{ws=new WebSocket((location.protocol==='https:'?'wss://':'ws://')+location.host+'/ws');
      ws.onmessage=e=>{const m=JSON.parse(e.data);if(m.type==='snapshot')sSt(m.data)};
      ws.onclose=()=>{t=setTimeout(open,2000)}};
    open();return()=>{clearTimeout(t);ws&&ws.close()};
  },[]);
  if(!st||!ov)return null;
  if(!st.loggedIn)return st.authPage==='signup'?<Signup/>:<Login/>;
  return<div className="shell">
    {st.sidebarOpen&&<div className="side"><h1>🛡 IoT Chain</h1><small>Secure IoT Data Pipeline</small>
      {PAGES.map(([p,l])=><button key={p} className={'nav'+(st.page===p?' on':'')} onClick={()=>post('/api/navigate',{page:p})}>{l}</button>)}
      <button className="nav" onClick={()=>post('/api/auth/logout')}>Logout</button></div>}
    <div className="main">
      <div className="hdr"><button className="lnk" onClick={()=>post('/api/sidebar/toggle')}>☰</button><b>{(PAGES.find(x=>x[0]===st.page)||[])[1]}</b><span/></div>
      <div className="body">
        {st.page==='home'&&<Home ov={ov}/>}
        {st.page==='history'&&<History v={st.history}/>}
        {st.page==='blockchain'&&<Blocks v={st.blocks}/>}
        {st.page==='ai'&&<Analysis a={st.analysis} info={ov.analysisInfo}/>}
      </div>
      <div className="ftr"><div className="mq">{ov.marquee.join(' • ')}</div><div>Team: {ov.team.join(', ')}</div></div>
    </div>
  </div>
}

function Login(){
  const[e,sE]=useState('');const[p,sP]=useState('');const[err,sErr]=useState('');
  const go=ev=>{ev.preventDefault();post('/api/auth/login',{email:e,password:p}).catch(x=>sErr(x.message))};
  return<div className="auth"><form className="card" onSubmit={go}><h2>Welcome Back</h2><p>Sign in to the IoT Chain dashboard</p>
    <div className="fg"><input type="email" required placeholder="Email" value={e} onChange={x=>sE(x.target.value)}/></div>
    <div className="fg"><input type="password" required placeholder="Password" value={p} onChange={x=>sP(x.target.value)}/></div>
    {err&&<p className="dn">{err}</p>}
    <button className="btn">Sign In</button><br/>
    <button type="button" className="lnk" onClick={()=>post('/api/auth/page',{page:'signup'})}>Create an account</button></form></div>
}

function Signup(){
  const[f,sF]=useState({name:'',email:'',password:'',confirmPassword:''});
  const set=k=>x=>sF({...f,[k]:x.target.value});
  const go=ev=>{ev.preventDefault();post('/api/auth/signup',f).catch(x=>alert(x.message))};
  return<div className="auth"><form className="card" onSubmit={go}><h2>Create Account</h2><p>Join the IoT Chain network</p>
    <div className="fg"><input required placeholder="Full name" value={f.name} onChange={set('name')}/></div>
    <div className="fg"><input type="email" required placeholder="Email" value={f.email} onChange={set('email')}/></div>
    <div className="fg"><input type="password" required placeholder="Password" value={f.password} onChange={set('password')}/></div>
    <div className="fg"><input type="password" required placeholder="Confirm password" value={f.confirmPassword} onChange={set('confirmPassword')}/></div>
    <button className="btn">Sign Up</button><br/>
    <button type="button" className="lnk" onClick={()=>post('/api/auth/page',{page:'login'})}>Already have an account?</button></form></div>
}

function Stat({c}){return<div className="st"><div className="l">{c.title}</div><div className="v">{c.value}</div>
  {c.trend&&<div className={c.trend[0]==='+'?'up':'dn'}>{c.trend} from last week</div>}</div>}

function Home({ov}){
  return<div>
    <div className="grid">{ov.statCards.map(c=><Stat key={c.title} c={c}/>)}</div>
    <div className="grid">{ov.infoBoxes.map(b=><div key={b.title} className={'st tone-'+b.tone}><div className="v" style={{fontSize:16}}>{b.title}</div><div className="l">● {b.status}</div></div>)}</div>
    <div className="grid">{ov.quickStats.map(q=><div key={q.label} className="st"><div className="l">{q.label}</div><div className="v">{q.value}</div></div>)}</div>
  </div>
}

function Warn({v,msg}){if(v.source==='fallback')return<div className="warn"><b>⚠ Connection Warning</b><br/>{msg}</div>;
  return v.error?<div className="warn dn">Fetch failed: {v.error}</div>:null}

function History({v}){
  return<div>
    <div className="hdr" style={{padding:'0 0 12px'}}><b>Transaction History</b><button className="btn" onClick={()=>post('/api/history/refresh')}>Refresh</button></div>
    <Warn v={v} msg="Unable to fetch data from backend. Displaying mock data for demonstration purposes."/>
    {v.loading?<p>Loading records...</p>:<table><thead><tr><th>Asset ID</th><th>Hash</th><th>Device</th><th>Timestamp</th><th>Status</th></tr></thead>
      <tbody>{v.records.map(r=><tr key={r.id}><td>{r.id}</td><td className="mono">{r.hash.length>16?r.hash.slice(0,16)+'...':r.hash}</td><td>{r.deviceId}</td><td>{ts(r.timestamp)}</td><td className="ok">✔ {r.status}</td></tr>)}</tbody></table>}
  </div>
}

function Blocks({v}){
  return<div>
    <div className="hdr" style={{padding:'0 0 12px'}}><b>Blockchain Explorer</b><button className="btn" onClick={()=>post('/api/blockchain/refresh')}>Refresh</button></div>
    <Warn v={v} msg="Unable to fetch blockchain data. Displaying mock data for demonstration purposes."/>
    {v.loading?<p>Loading blocks...</p>:<table><thead><tr><th>Block</th><th>Block ID</th><th>Transaction ID</th><th>Timestamp</th><th>Transactions</th><th>Validator</th></tr></thead>
      <tbody>{v.records.map(b=><tr key={b.blockNumber}><td>#{b.blockNumber}</td><td className="mono">{b.blockId}</td><td className="mono">{b.transactionId}</td><td>{ts(b.timestamp)}</td><td>{b.transactions} TXNs</td><td>{b.validator}</td></tr>)}</tbody></table>}
  </div>
}

function Analysis({a,info}){
  const p=a.params;const month=p.timeRange==='month';
  const set=ch=>post('/api/analysis/params',{...p,...ch}).catch(x=>alert(x.message));
  return<div>
    <div className="grid">{info.map(q=><div key={q.label} className="st"><div className="l">{q.label}</div><div className="v" style={{fontSize:16}}>{q.value}</div></div>)}</div>
    <div className="seg" style={{marginBottom:10}}>{['week','month'].map(r=><button key={r} className={p.timeRange===r?'on':''} onClick={()=>set({timeRange:r})}>{r==='week'?'Week':'Month'}</button>)}</div>
    <div className="seg" style={{marginBottom:16}}>{(month?MONTHS:WEEKS).map(n=><button key={n} className={(month?p.selectedMonths:p.selectedWeeks)===n?'on':''}
      onClick={()=>set(month?{selectedMonths:n}:{selectedWeeks:n})}>{n} {month?'month':'week'}{n>1?'s':''}</button>)}</div>
    <button className="btn" disabled={a.loading} onClick={()=>post('/api/analysis/run')}>{a.loading?'Analyzing...':'Run Analysis'}</button>
    {a.error&&<p className="dn">{a.error}</p>}
    {a.result&&<div style={{marginTop:18}}>
      <div className="grid">
        <Stat c={{title:'Total Records',value:fmt(a.result.totalRecords)}}/><Stat c={{title:'Anomalies Detected',value:fmt(a.result.anomaliesDetected)}}/>
        <Stat c={{title:'Accuracy',value:a.result.accuracy}}/><Stat c={{title:'Avg Processing',value:a.result.avgProcessingTime}}/>
      </div>
      <table><tbody>{a.result.topAnomalies.map(x=><tr key={x.type}><td><span className={'dot '+x.severity}/>{x.type}</td><td>{x.count}</td><td>{x.severity}</td></tr>)}</tbody></table>
    </div>}
  </div>
}

ReactDOM.render(<App/>,document.getElementById('root'));
</script></body></html>` + "\n"
